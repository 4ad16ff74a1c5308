package service

import (
	"time"

	"github.com/okian/storyloom/internal/adapters/artifact"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
)

// Option configures a Service.
type Option func(*Service)

// WithWorkerCount sets the number of pipeline workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the idempotency-key index.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreSize bounds the number of jobs kept in memory.
func WithStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithRunTimeout caps a single pipeline run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithPipelineDefaults sets the options a submission starts from.
func WithPipelineDefaults(o model.PipelineOptions) Option {
	return func(s *Service) { s.defaults = o }
}

// WithPipelineOptions passes options to the facade.
func WithPipelineOptions(opts ...PipelineOption) Option {
	return func(s *Service) { s.pipelineOpts = append(s.pipelineOpts, opts...) }
}

// WithImages enables illustrations.
func WithImages(images companion.Images) Option {
	return func(s *Service) { s.images = images }
}

// WithArtifacts sets where illustrations are stored.
func WithArtifacts(store artifact.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.artifacts = store
		}
	}
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
