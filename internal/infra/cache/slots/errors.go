package slots

import "errors"

var (
	ErrCacheGet    = errors.New("slots.cache: failed to get claimed slots")
	ErrCacheSet    = errors.New("slots.cache: failed to set claimed slots")
	ErrCacheDelete = errors.New("slots.cache: failed to invalidate claimed slots")
	ErrDecode      = errors.New("slots.cache: failed to decode claimed slots")
)
