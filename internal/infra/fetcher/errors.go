package fetcher

import "errors"

var (
	// ErrInvalidURL marks URLs that fail scheme or hostname validation.
	ErrInvalidURL = errors.New("invalid url")

	// ErrPrivateIP marks hostnames resolving to private address space.
	ErrPrivateIP = errors.New("url resolves to private ip")

	// ErrTooManyRedirects marks fetches exceeding the redirect cap.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge marks responses over the size cap.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrNoContent marks pages readability could not extract anything from.
	ErrNoContent = errors.New("no readable content")
)
