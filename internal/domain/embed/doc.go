// Package embed reads third-party embed elements and builds the attribute set
// a sandbox receives.
//
// An embed element looks like:
//
//	<amp-ad type="a9" width="300" height="250" data-slot-id="top"
//	        json='{"targeting":{"pos":"atf"}}'></amp-ad>
//
// ExtractAttributes turns it into {type, width, height, slotId, targeting}.
// ContextMetadata then adds the "_context" object describing the host window.
package embed
