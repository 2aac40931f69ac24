package cache

import "errors"

// ErrCacheFile indicates the saved cache could not be read or written.
var ErrCacheFile = errors.New("search cache file")
