package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownGender     = errors.New("unknown gender")
	ErrUnknownDiscipline = errors.New("unknown discipline")
	ErrInvalidSlot       = errors.New("invalid attempt slot")
	ErrInvalidAthlete    = errors.New("invalid athlete")
)
