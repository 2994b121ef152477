package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUnknownBackend = errors.New("unknown registry backend")
	ErrCorrupt        = errors.New("store file is corrupt")
)
