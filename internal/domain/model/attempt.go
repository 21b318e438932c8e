package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// AttemptState tags an attempt slot.
type AttemptState uint8

const (
	// NotAttempted is an empty slot.
	NotAttempted AttemptState = iota
	// Invalid is a foul or failed attempt ("X" on the sheet).
	Invalid
	// Recorded carries a measured value.
	Recorded
)

func (s AttemptState) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Recorded:
		return "recorded"
	}
	return "not_attempted"
}

// InvalidMark is the raw sheet marker of an invalid attempt.
const InvalidMark = "X"

// Attempt is one slot value. The zero value is NotAttempted.
type Attempt struct {
	state AttemptState
	value float64
	at    time.Time
}

// EmptyAttempt returns a NotAttempted slot value.
func EmptyAttempt() Attempt { return Attempt{} }

// InvalidAttempt returns an Invalid attempt recorded at at.
func InvalidAttempt(at time.Time) Attempt {
	return Attempt{state: Invalid, at: at}
}

// RecordedAttempt returns a measured attempt recorded at at.
func RecordedAttempt(v float64, at time.Time) Attempt {
	return Attempt{state: Recorded, value: v, at: at}
}

// ParseAttempt reads the raw sheet form: "" is NotAttempted, "X" is Invalid,
// a finite non-negative decimal (point or comma) is Recorded. Anything else
// is treated as Invalid.
func ParseAttempt(raw string, at time.Time) Attempt {
	r := strings.TrimSpace(raw)
	if r == "" {
		return Attempt{}
	}
	if strings.EqualFold(r, InvalidMark) {
		return InvalidAttempt(at)
	}
	v, err := strconv.ParseFloat(strings.Replace(r, ",", ".", 1), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidAttempt(at)
	}
	return RecordedAttempt(v, at)
}

func (a Attempt) State() AttemptState   { return a.state }
func (a Attempt) RecordedAt() time.Time { return a.at }
func (a Attempt) IsEmpty() bool         { return a.state == NotAttempted }
func (a Attempt) IsInvalid() bool       { return a.state == Invalid }
func (a Attempt) IsRecorded() bool      { return a.state == Recorded }

// Value returns the measured value; ok is false unless the attempt is Recorded.
func (a Attempt) Value() (v float64, ok bool) {
	if a.state != Recorded {
		return 0, false
	}
	return a.value, true
}

// Raw renders the sheet form of the attempt.
func (a Attempt) Raw() string {
	switch a.state {
	case Invalid:
		return InvalidMark
	case Recorded:
		return strconv.FormatFloat(a.value, 'f', -1, 64)
	}
	return ""
}

func (a Attempt) String() string { return a.Raw() }
