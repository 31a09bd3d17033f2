package generator

import (
	"errors"
)

var (
	// ErrNoOutcomesProvided is returned by Generate for an empty outcome list.
	ErrNoOutcomesProvided = errors.New("no learning outcomes provided")
	// ErrNoDimensionSelected is returned by Generate when no dimension is selected.
	ErrNoDimensionSelected = errors.New("please select at least one DEC AI Literacy dimension")
)

// UpstreamError is an oracle call or model-output failure. The user may retry.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// IsUpstream reports whether err came from the oracle or its output.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
