// Package fetch loads host documents for windows registered by URL alone.
//
// The Fetcher wraps resty over a retryablehttp transport with a rate limiter
// and a circuit breaker. Bodies are capped, decoded to UTF-8 (declared
// charset first, chardet detection otherwise) and reduced by a bluemonday
// policy to the head metadata the bootstrap resolver reads: meta
// declarations and canonical links. Nothing else from the page is kept.
package fetch
