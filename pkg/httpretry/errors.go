package httpretry

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a request abandoned because its context was done.
// It is never retried.
var ErrCancelled = errors.New("operation cancelled")

// ErrExhausted is matched by *ExhaustedError via errors.Is.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError describes the last attempt of a request that kept failing
// with a retryable outcome.
type ExhaustedError struct {
	Attempts   int
	StatusCode int // 0 when the last attempt failed before a response
	Status     string
	Body       string
	Err        error // last transport error, if any
}

func (e *ExhaustedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("request failed after %d attempts: %d %s", e.Attempts, e.StatusCode, e.Body)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExhausted) match.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }
