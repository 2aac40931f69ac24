package model

import "errors"

// Sentinel kinds for model validation and decoding errors.
var (
	ErrMisalignedSeries = errors.New("timestamps do not align with observations")
	ErrInvalidWatchlist = errors.New("invalid watchlist")
	ErrInvalidFilter    = errors.New("invalid analysis filter")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrEmptyEnvelope    = errors.New("response envelope carries no data")
)
