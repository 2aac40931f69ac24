package config

import (
	"errors"
)

// Sentinel error kinds for this package. Load wraps provider and decode
// failures with ErrLoadConfig and validation failures with ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
