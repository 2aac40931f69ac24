package repository

import "errors"

// Sentinel kinds for token store errors.
var (
	ErrNotFound     = errors.New("no stored token")
	ErrInvalidToken = errors.New("invalid token")
	ErrStorage      = errors.New("token storage failure")
)
