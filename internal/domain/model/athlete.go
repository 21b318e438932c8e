// Package model contains the domain types shared by the scoring engine,
// the stores and the transport layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MinBirthYear is the earliest birth year accepted for new athletes.
const MinBirthYear = 1990

// Athlete is one roster entry together with its attempt slots.
type Athlete struct {
	Key       string
	Name      string
	BirthYear int
	Gender    Gender
	Riege     string

	attempts [SlotCount]Attempt

	// Stored holds the points last persisted by a points run, if any.
	Stored *StoredScore
}

// Attempt returns the value in slot s.
func (a *Athlete) Attempt(s Slot) Attempt { return a.attempts[s.ordinal()] }

// SetAttempt overwrites slot s.
func (a *Athlete) SetAttempt(s Slot, v Attempt) { a.attempts[s.ordinal()] = v }

// Attempts returns the slots of d in attempt order.
func (a *Athlete) Attempts(d Discipline) []Attempt {
	slots := SlotsOf(d)
	out := make([]Attempt, len(slots))
	for i, s := range slots {
		out[i] = a.Attempt(s)
	}
	return out
}

// Clone returns a deep copy.
func (a Athlete) Clone() Athlete {
	if a.Stored != nil {
		s := a.Stored.Clone()
		a.Stored = &s
	}
	return a
}

// Validate checks the identity fields of a new athlete. maxYear is the latest
// acceptable birth year, normally the current calendar year.
func (a Athlete) Validate(maxYear int) error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidAthlete)
	case strings.TrimSpace(a.Riege) == "":
		return fmt.Errorf("%w: riege is required", ErrInvalidAthlete)
	case !a.Gender.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidAthlete, ErrUnknownGender)
	case a.BirthYear < MinBirthYear || a.BirthYear > maxYear:
		return fmt.Errorf("%w: birth year must be between %d and %d", ErrInvalidAthlete, MinBirthYear, maxYear)
	}
	return nil
}

// Points is the per-discipline and total score of one athlete.
type Points struct {
	LongJump int `json:"longJump"`
	Throw    int `json:"throw"`
	Sprint   int `json:"sprint"`
	Total    int `json:"total"`
}

// Of returns the component for d.
func (p Points) Of(d Discipline) int {
	switch d {
	case LongJump:
		return p.LongJump
	case Throw:
		return p.Throw
	case Sprint:
		return p.Sprint
	}
	return 0
}

// StoredScore is the write-back payload of a points run.
type StoredScore struct {
	Points Points
	// References holds the cohort reference values rounded to two decimals.
	// Undefined references are absent.
	References map[Discipline]float64
	ComputedAt time.Time
}

// Clone returns a deep copy.
func (s StoredScore) Clone() StoredScore {
	if s.References != nil {
		refs := make(map[Discipline]float64, len(s.References))
		for k, v := range s.References {
			refs[k] = v
		}
		s.References = refs
	}
	return s
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
