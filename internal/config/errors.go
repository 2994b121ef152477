package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLoadConfig     = errors.New("load config failed")
	ErrUnknownBackend = errors.New("unknown registry backend")
	ErrUnknownSource  = errors.New("unknown search source")
	ErrInvalidValue   = errors.New("invalid config value")
)
