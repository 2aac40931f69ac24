package service

import (
	"errors"

	"github.com/okian/trendscope/internal/session"
)

// Sentinel kinds for service errors.
var (
	// ErrInvalidInput marks input rejected before any request was sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInFlight is returned when the same form already has a request outstanding.
	ErrInFlight = errors.New("request already in progress")
	// ErrNotAuthenticated is returned by operations that need a live session.
	ErrNotAuthenticated = session.ErrNotAuthenticated
)
