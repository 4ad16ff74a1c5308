package artifact

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/pkg/metrics"
)

// MemoryStore keeps objects in a map. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Object
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Object)}
}

// Backend names the store in metrics.
func (s *MemoryStore) Backend() string { return config.BackendMemory }

// Put stores a copy of obj.
func (s *MemoryStore) Put(_ context.Context, key string, obj Object) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = Object{Data: append([]byte(nil), obj.Data...), ContentType: obj.ContentType}
	s.mu.Unlock()
	metrics.RecordArtifactStored(s.Backend())
	return nil
}

// Get returns a copy of the stored object.
func (s *MemoryStore) Get(_ context.Context, key string) (Object, error) {
	key, err := checkKey(key)
	if err != nil {
		return Object{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return Object{Data: append([]byte(nil), obj.Data...), ContentType: obj.ContentType}, nil
}
