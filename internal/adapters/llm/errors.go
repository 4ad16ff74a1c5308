package llm

import (
	"errors"
	"fmt"

	"github.com/okian/storyloom/pkg/httpretry"
)

var (
	// ErrCancelled is returned when the call's context is done.
	ErrCancelled = httpretry.ErrCancelled

	// ErrContentMissing means the provider answered without message content.
	ErrContentMissing = errors.New("AI response missing content")

	// ErrImageMissing means the image endpoint returned no image.
	ErrImageMissing = errors.New("image response missing url")
)

// RequestError is a non-2xx answer or a request whose retries ran out.
type RequestError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("AI request failed: %v", e.Err)
	}
	return fmt.Sprintf("AI request failed: %d %s %s", e.StatusCode, e.Status, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

// MalformedResponseError means the content could not be parsed as JSON.
type MalformedResponseError struct {
	Content string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed AI response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsCancelled reports whether err stems from a done context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsCancelled(err):
		return "cancelled"
	}
	var re *RequestError
	if errors.As(err, &re) {
		return "request_error"
	}
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return "malformed"
	}
	if errors.Is(err, ErrContentMissing) {
		return "empty"
	}
	return "error"
}
