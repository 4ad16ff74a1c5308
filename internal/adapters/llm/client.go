// Package llm talks to chat-completion providers and returns their answers
// as JSON values.
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/okian/storyloom/pkg/jsonloose"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Request is what a backend sends for one call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	MaxAttempts int
}

// Completer is a provider backend returning the raw message content.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Middleware decorates a Completer.
type Middleware func(Completer) Completer

// Wrap applies middlewares left to right: Wrap(c, A, B) is A(B(c)).
func Wrap(inner Completer, mws ...Middleware) Completer {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Chatter returns a parsed JSON answer for a conversation.
type Chatter interface {
	ChatJSON(ctx context.Context, msgs []Message, opts ...CallOption) (json.RawMessage, error)
}

// Client turns a Completer's content into JSON values.
type Client struct {
	backend  Completer
	defaults []CallOption
}

// NewClient wraps backend with logging and metrics. defaults apply to every
// call before the call's own options.
func NewClient(backend Completer, l logger.Logger, defaults ...CallOption) *Client {
	if l == nil {
		l = logger.Named("llm")
	}
	return &Client{backend: Wrap(backend, Logging(l), Instrument()), defaults: defaults}
}

// Name is the backend name.
func (c *Client) Name() string { return c.backend.Name() }

// ChatJSON sends msgs and parses the answer content as JSON.
func (c *Client) ChatJSON(ctx context.Context, msgs []Message, opts ...CallOption) (json.RawMessage, error) {
	req := Request{
		Messages:    msgs,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range c.defaults {
		opt(&req)
	}
	for _, opt := range opts {
		opt(&req)
	}

	content, err := c.backend.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, ErrContentMissing
	}
	raw, err := jsonloose.Parse(content)
	if err != nil {
		return nil, &MalformedResponseError{Content: content, Err: err}
	}
	return raw, nil
}

// Decode runs a chat call and unmarshals the answer into T.
func Decode[T any](ctx context.Context, c Chatter, msgs []Message, opts ...CallOption) (T, error) {
	var out T
	raw, err := c.ChatJSON(ctx, msgs, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &MalformedResponseError{Content: string(raw), Err: err}
	}
	return out, nil
}

type logging struct {
	next Completer
	log  logger.Logger
}

// Logging logs every call with its duration and outcome.
func Logging(l logger.Logger) Middleware {
	return func(next Completer) Completer {
		return &logging{next: next, log: l}
	}
}

func (m *logging) Name() string { return m.next.Name() }

func (m *logging) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	content, err := m.next.Complete(ctx, req)
	fields := []logger.Field{
		logger.String("backend", m.next.Name()),
		logger.Int("messages", len(req.Messages)),
		logger.Float64("temperature", req.Temperature),
		logger.Int("max_tokens", req.MaxTokens),
		logger.Duration("elapsed", time.Since(start)),
	}
	switch {
	case err == nil:
		m.log.Debug(ctx, "chat completed", append(fields, logger.Int("content_len", len(content)))...)
	case IsCancelled(err):
		m.log.Info(ctx, "chat cancelled", fields...)
	default:
		m.log.Warn(ctx, "chat failed", append(fields, logger.Error(err))...)
	}
	return content, err
}

type instrumented struct {
	next Completer
}

// Instrument records request counts and latency per backend and outcome.
func Instrument() Middleware {
	return func(next Completer) Completer {
		return &instrumented{next: next}
	}
}

func (m *instrumented) Name() string { return m.next.Name() }

func (m *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	content, err := m.next.Complete(ctx, req)
	o := outcome(err)
	if err == nil && content == "" {
		o = outcome(ErrContentMissing)
	}
	metrics.RecordLLMRequest(m.next.Name(), o, float64(time.Since(start).Milliseconds()))
	if err != nil && !IsCancelled(err) {
		metrics.RecordErrorByComponent("llm", o)
	}
	return content, err
}
