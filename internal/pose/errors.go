package pose

import (
	"errors"
	"fmt"
)

// ErrDegenerateGeometry is returned by InferLegs when no torso segment could
// be measured. It is soft: Smooth reports it as an event and carries on.
var ErrDegenerateGeometry = errors.New("degenerate geometry: spine length is zero")

// InsufficientFramesError rejects sequences too short for the smoothing window.
type InsufficientFramesError struct {
	Count int
	Min   int
}

func (e *InsufficientFramesError) Error() string {
	return fmt.Sprintf("insufficient frames for smoothing: got %d, need at least %d", e.Count, e.Min)
}

// MissingInputError rejects a frame record that cannot be located or is malformed.
type MissingInputError struct {
	Frame  int
	Key    string
	Reason string
	Err    error
}

func (e *MissingInputError) Error() string {
	msg := "missing/invalid input"
	if e.Key != "" {
		msg += fmt.Sprintf(" %s", e.Key)
	} else {
		msg += fmt.Sprintf(" frame %d", e.Frame)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// IsFatal reports whether err aborts a smoothing run. Infrastructure errors
// that are neither of the pose error types are not considered fatal here.
func IsFatal(err error) bool {
	var insufficient *InsufficientFramesError
	var missing *MissingInputError
	return errors.As(err, &insufficient) || errors.As(err, &missing)
}
