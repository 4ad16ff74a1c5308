package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

const defaultCapacity = 1000

// LRUStore holds jobs in a size-bounded LRU cache. When full, the least
// recently used job is dropped, whatever its status.
type LRUStore struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, *model.Job]
	capacity int
	now      func() time.Time
	logger   logger.Logger
}

// NewLRUStore creates a store with the given options.
func NewLRUStore(opts ...Option) (*LRUStore, error) {
	s := &LRUStore{
		capacity: defaultCapacity,
		now:      time.Now,
		logger:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}

	cache, err := lru.NewWithEvict[string, *model.Job](s.capacity, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create job cache: %w", err)
	}
	s.cache = cache
	metrics.UpdateJobsStored(0)
	return s, nil
}

func (s *LRUStore) onEvict(id string, job *model.Job) {
	if !job.Status.Terminal() {
		s.logger.Warn(context.Background(), "evicted unfinished job",
			logger.String("jobID", id),
			logger.String("status", string(job.Status)),
		)
	}
}

// Create adds a new job.
func (s *LRUStore) Create(_ context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.Contains(job.ID) {
		return fmt.Errorf("%w: %s", ErrExists, job.ID)
	}
	c := job.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.cache.Add(c.ID, c)
	metrics.UpdateJobsStored(s.cache.Len())
	return nil
}

// Get returns a copy of the job.
func (s *LRUStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return job.Clone(), nil
}

// Update mutates the job in place and stamps UpdatedAt.
func (s *LRUStore) Update(_ context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := job.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id
	next.UpdatedAt = s.now()
	s.cache.Add(id, next)
	return next.Clone(), nil
}

// List returns jobs newest-used first.
func (s *LRUStore) List(_ context.Context, limit int) ([]*model.Job, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.cache.Keys()
	if limit == 0 || limit > len(keys) {
		limit = len(keys)
	}
	out := make([]*model.Job, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if job, ok := s.cache.Peek(keys[i]); ok {
			out = append(out, job.Clone())
		}
	}
	return out, nil
}

// Count returns the number of stored jobs.
func (s *LRUStore) Count(_ context.Context) int {
	n := s.cache.Len()
	metrics.UpdateJobsStored(n)
	return n
}
