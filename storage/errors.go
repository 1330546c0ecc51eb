package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a board is not found.
	ErrNotFound = errors.New("board not found")
)
