package repository

import (
	"time"

	"github.com/okian/storyloom/pkg/logger"
)

// Option configures an LRUStore.
type Option func(*LRUStore)

// WithCapacity bounds the number of jobs kept.
func WithCapacity(n int) Option {
	return func(s *LRUStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LRUStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *LRUStore) {
		if l != nil {
			s.logger = l
		}
	}
}
