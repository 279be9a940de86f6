/*
Package bootstrap decides which URL a third-party sandbox loads as its
bootstrap page.

# Resolution

A Resolver answers Resolve once per host window and caches the result:

 1. A custom URL declared by the host document with
    <meta name="amp-3p-iframe-src" content="https://...">, validated and
    suffixed with "?<version>".
 2. Otherwise the default URL. Production builds use a per-window random
    subdomain of the third-party frame host so every window gets its own
    origin:

	https://d-<rand>.<frame host>/<version>/frame.html

    Local development and test builds load from the dev server:

	http://ads.localhost:<port>/dist.3p/current/frame.max.html

# Custom URL rules

A custom URL must use https, must not contain "?", and must not share the
host document's origin. The same-origin rule is relaxed only when the URL's
host is exactly "localhost" and the caller did not ask for strict checking.
Violations are configuration errors (types.ErrConfiguration) and abort the
sandbox being created.

# Caching

The cache sits behind the Store interface. Writes are set-if-absent and
Resolve returns the stored value, so concurrent callers and replicas sharing a
store agree on one URL per window.
*/
package bootstrap
