package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/storyloom/internal/adapters/artifact"
	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/adapters/repository"
	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/domain/companion"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrUpstream     = errors.New("story model unavailable")
)

// Error carries the handler operation that failed.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.Error()
	case e.Kind == nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind classifies err as kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op and leaves it unclassified.
func Wrap(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	var (
		ve *service.ValidationError
		re *llm.RequestError
		me *llm.MalformedResponseError
	)
	switch {
	case errors.As(err, &ve), errors.Is(err, ErrBadRequest), errors.Is(err, artifact.ErrInvalidKey):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBusy), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, artifact.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, service.ErrFinished):
		return http.StatusConflict, "finished"
	case errors.Is(err, companion.ErrNoImages):
		return http.StatusNotImplemented, "not_configured"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case llm.IsCancelled(err):
		return http.StatusServiceUnavailable, "cancelled"
	case errors.As(err, &re), errors.As(err, &me), errors.Is(err, llm.ErrContentMissing),
		errors.Is(err, companion.ErrNoIdeas), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}
