package types

import "errors"

// Sentinel validation errors.
var (
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrInvalidGeo       = errors.New("invalid geo")
	ErrInvalidKeywords  = errors.New("invalid keywords")
	ErrInvalidDirection = errors.New("invalid trend direction")
)
