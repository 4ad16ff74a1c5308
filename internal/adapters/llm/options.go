package llm

import (
	"time"

	"github.com/okian/storyloom/pkg/httpretry"
	"github.com/okian/storyloom/pkg/logger"
)

// Call defaults.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8192
	DefaultMaxAttempts = httpretry.DefaultMaxAttempts
)

// CallOption adjusts a single chat call.
type CallOption func(*Request)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CallOption {
	return func(r *Request) {
		if t >= 0 {
			r.Temperature = t
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) CallOption {
	return func(r *Request) {
		if n > 0 {
			r.MaxTokens = n
		}
	}
}

// WithMaxAttempts bounds transport attempts for the call.
func WithMaxAttempts(n int) CallOption {
	return func(r *Request) {
		if n > 0 {
			r.MaxAttempts = n
		}
	}
}

// Option configures a backend.
type Option func(*settings)

type settings struct {
	baseURL   string
	token     string
	model     string
	timeout   time.Duration
	transport *httpretry.Client
	log       logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{model: "meta-llama/Meta-Llama-3.1-8B-Instruct"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Named("llm")
	}
	return s
}

// WithBaseURL sets the provider root, e.g. "https://gateway.example".
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithToken sets the bearer token / API key.
func WithToken(t string) Option {
	return func(s *settings) { s.token = t }
}

// WithModel sets the model id sent with every call.
func WithModel(m string) Option {
	return func(s *settings) {
		if m != "" {
			s.model = m
		}
	}
}

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTransport replaces the retrying transport.
func WithTransport(c *httpretry.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.transport = c
		}
	}
}

// WithLogger sets the logger a backend reports retries and truncation to.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
