package fetcher

import "errors"

var (
	ErrInvalidURL = errors.New("invalid_url")
	ErrTimeout    = errors.New("page fetch timed out")
	ErrFetch      = errors.New("page fetch failed")
)
