package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// Error records the handler operation that failed together with the error
// kind used for status mapping.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err and keeps err's own kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
