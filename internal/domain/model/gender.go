package model

import (
	"fmt"
	"strings"
)

// Gender of an athlete. The zero value is unknown and never matches a cohort.
type Gender uint8

const (
	GenderUnknown Gender = iota
	Male
	Female
)

// ParseGender accepts the canonical names and the short codes used on
// competition sheets ("m", "w", "f").
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "männlich":
		return Male, nil
	case "w", "f", "female", "weiblich":
		return Female, nil
	}
	return GenderUnknown, fmt.Errorf("%w: %q", ErrUnknownGender, s)
}

func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	}
	return "unknown"
}

// Code returns the short sheet code: "m" or "w".
func (g Gender) Code() string {
	switch g {
	case Male:
		return "m"
	case Female:
		return "w"
	}
	return ""
}

// Valid reports whether g is male or female.
func (g Gender) Valid() bool { return g == Male || g == Female }

func (g Gender) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return []byte(""), nil
	}
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*g = GenderUnknown
		return nil
	}
	v, err := ParseGender(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
