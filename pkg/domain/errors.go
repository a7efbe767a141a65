package domain

import "errors"

var (
	// ErrEmptyID rejects blank caller-supplied identifiers.
	ErrEmptyID = errors.New("identifier cannot be empty")
	// ErrIDTooLong bounds caller-supplied identifiers before they reach storage.
	ErrIDTooLong = errors.New("identifier exceeds maximum length")
)
