package transform

import (
	"errors"
	"fmt"
)

// ErrNotTextblock is returned by SetBlockType for a non-textblock type.
var ErrNotTextblock = errors.New("type is not a textblock")

// StepError reports a step that could not be applied. The document the
// step was applied to is left as it was.
type StepError struct {
	Step   Step
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s: %s: %v", e.Step.Kind(), e.Reason, e.Err)
	}
	return fmt.Sprintf("step %s: %s", e.Step.Kind(), e.Reason)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepFailed(s Step, reason string, err error) *StepError {
	return &StepError{Step: s, Reason: reason, Err: err}
}
