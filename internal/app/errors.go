package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrBusy       = errors.New("too many queued stories")
	ErrNotReady   = errors.New("story is not finished")
	ErrFinished   = errors.New("job already finished")
	ErrJobCancel  = errors.New("job cancelled by request")
)

// ValidationError lists every problem found in a request before any
// network call is made.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid story input: " + strings.Join(e.Problems, "; ")
}

// PipelineError is a failed run other than cancellation.
type PipelineError struct {
	Err error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("story generation failed: %v", e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
