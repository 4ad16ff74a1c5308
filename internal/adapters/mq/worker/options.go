package worker

import "github.com/okian/storyloom/pkg/logger"

// Option configures a Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
