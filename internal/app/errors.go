package service

import "errors"

// Sentinel kinds for service errors. Store and model errors pass through
// wrapped, so callers match them with errors.Is as well.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAttemptsComplete = errors.New("all attempts used")
	ErrNotImproved      = errors.New("time not improved")
	ErrBackpressure     = errors.New("write-back queue full")
)
