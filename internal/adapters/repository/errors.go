package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	// ErrValidation marks bad input on create; never retried.
	ErrValidation = errors.New("event validation failed")
	// ErrNotFound means the event id is unknown.
	ErrNotFound = errors.New("event not found")
	// ErrStateConflict marks a lost compare-and-swap race or an illegal
	// state edge. Benign: the caller re-fetches and decides again.
	ErrStateConflict = errors.New("sync state conflict")
)
