package repository

import "errors"

// Sentinel kinds for roster store errors.
var (
	ErrNotFound      = errors.New("athlete not found")
	ErrAlreadyExists = errors.New("athlete already exists")
	ErrInvalidKey    = errors.New("invalid athlete key")
	// ErrConflict is returned when a concurrent writer kept winning the race.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrUnavailable is returned while the remote store is considered down.
	ErrUnavailable = errors.New("store unavailable")
)
