package fetcher

import "errors"

var (
	// ErrInvalidURL indicates a URL that failed parsing or scheme checks.
	ErrInvalidURL = errors.New("invalid url")

	// ErrPrivateIP indicates a hostname resolving to a private address.
	ErrPrivateIP = errors.New("url resolves to private ip")

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates a response exceeding the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrNoContent indicates the page had no extractable article text.
	ErrNoContent = errors.New("no readable content found")
)
