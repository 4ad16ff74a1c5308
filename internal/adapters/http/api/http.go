// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/storyloom/internal/adapters/artifact"
	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
)

// maxBody bounds every JSON request body.
const maxBody = 1 << 20

// Stories is what the handlers need from the story service.
type Stories interface {
	Validate(v any) error
	Submit(ctx context.Context, req types.SubmitRequest, idempotencyKey string) (types.SubmitResponse, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Cancel(ctx context.Context, id string) (*model.Job, error)
	Result(ctx context.Context, id string) (*model.Result, error)
	Stream(ctx context.Context, id string) (*model.Job, <-chan types.StreamMessage, error)
	Stats(ctx context.Context) types.Stats
}

// Companions is what the handlers need for the story extras.
type Companions interface {
	Questions(ctx context.Context, id string, req types.QuestionsRequest) ([]companion.Question, error)
	Prompts(ctx context.Context, id string, req types.PromptsRequest) ([]string, error)
	Illustrate(ctx context.Context, id string) (model.Illustration, error)
	Illustration(ctx context.Context, key string) (artifact.Object, error)
	RandomInputs(ctx context.Context, req types.RandomInputRequest) ([]companion.Idea, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Stories
	Companions
}

// Server wires HTTP routes for the story API.
type Server struct {
	deps   Dependencies
	logger logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new API server over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint, s.logger))
	}

	route("GET /healthz", "healthz", s.handleHealth)
	route("GET /stats", "stats", s.handleStats)

	route("POST /stories", "stories_submit", s.handleSubmit)
	route("GET /stories/{id}", "stories_get", s.handleGet)
	route("DELETE /stories/{id}", "stories_cancel", s.handleCancel)
	route("GET /stories/{id}/story.md", "stories_markdown", s.handleMarkdown)
	route("GET /stories/{id}/story.html", "stories_html", s.handleHTML)
	route("GET /stories/{id}/story.txt", "stories_text", s.handleText)
	route("GET /stories/{id}/stream", "stories_stream", s.handleStream)

	route("POST /stories/{id}/questions", "questions", s.handleQuestions)
	route("POST /stories/{id}/prompts", "prompts", s.handlePrompts)
	route("POST /stories/{id}/illustrations", "illustrations_create", s.handleIllustrate)
	route("GET /illustrations/{key...}", "illustrations_get", s.handleIllustration)

	route("POST /inputs/random", "inputs_random", s.handleRandomInputs)
	route("GET /grades/{grade}", "grades", s.handleGrade)
	route("POST /phonics/analyze", "phonics_analyze", s.handlePhonics)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// fail writes err as an ErrorResponse with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	resp := types.ErrorResponse{Code: code, Message: err.Error()}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		resp.Problems = ve.Problems
	}
	if status >= statusInternalError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
