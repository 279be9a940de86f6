/*
Package protocol implements the framed message format shared by a host
document and its third-party sandboxes.

# Wire Format

	<prefix><version?>{"type":"<kind>","sentinel":"<depth>-<rand>", ...fields}

For example:

	amp-1.0{"height":250,"sentinel":"0-34821193","type":"embed-size","width":300}

The prefix separates protocol traffic from unrelated code sharing the same
postMessage channel. The optional version token sits between the prefix and
the JSON body and is discarded on decode.

# Decoding

Deserialize never fails loudly. Untagged or non-string traffic is foreign and
silently ignored; tagged traffic with a broken JSON body is logged at debug
level. In both cases the caller receives ok == false and must treat it as "no
message". The codec does not enforce the sentinel matching policy.
*/
package protocol
