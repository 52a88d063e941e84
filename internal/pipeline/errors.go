package pipeline

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrNoTablesFound means the run finished but neither extraction path
	// produced a table. It is a warning, not a failure.
	ErrNoTablesFound = eris.New("no tables found in the uploaded PDF")

	// ErrPipelineFailure matches every error that aborted a run.
	ErrPipelineFailure = eris.New("pipeline failure")
)

// FailureError carries the stage that aborted a run and its cause.
type FailureError struct {
	Stage string
	Err   error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

func (e *FailureError) Is(target error) bool { return target == ErrPipelineFailure }

// Fail wraps err as a failure of stage. ErrNoTablesFound and errors that are
// already failures pass through unchanged.
func Fail(stage string, err error) error {
	return fail(stage, err)
}

func fail(stage string, err error) error {
	if err == nil || errors.Is(err, ErrNoTablesFound) || errors.Is(err, ErrPipelineFailure) {
		return err
	}
	return &FailureError{Stage: stage, Err: err}
}
