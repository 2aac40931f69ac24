package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMalformedToken   = errors.New("malformed access token")
)
