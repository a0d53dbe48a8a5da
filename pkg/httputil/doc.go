// Package httputil provides HTTP utilities for registry and audit-service clients.
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried. The delay doubles after
// every failed attempt; a [RetryableError] carrying a Wait hint (typically
// parsed from a Retry-After header) replaces the computed delay when longer:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Max attempts: 3
//   - Base backoff: 1 second
//   - Max honoured Retry-After: 1 minute
package httputil
