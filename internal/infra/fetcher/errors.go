package fetcher

import "errors"

// Content fetch failures. The Curator treats all of them the same way and falls
// back to the feed summary; the distinction is for logs and tests.
var (
	ErrInvalidURL        = errors.New("invalid URL or unsupported scheme")
	ErrPrivateIP         = errors.New("private IP access denied (SSRF prevention)")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("request timeout")
	ErrReadabilityFailed = errors.New("content extraction failed")
)
