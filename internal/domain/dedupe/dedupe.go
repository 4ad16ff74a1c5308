// Package dedupe maps idempotency keys to the job they first created.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Index records which job an idempotency key produced.
type Index interface {
	// Remember returns the job already recorded for key and true, or records
	// jobID for key and returns it with false. Empty keys are never recorded.
	Remember(ctx context.Context, key, jobID string) (string, bool)

	// Forget drops key so a later submission runs again, e.g. after the
	// queue rejected the job.
	Forget(ctx context.Context, key string)

	// Lookup returns the job recorded for key.
	Lookup(ctx context.Context, key string) (string, bool)

	Size() int64
}

// node is one entry of the insertion-ordered list.
type node struct {
	key        string
	jobID      string
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryIndex keeps keys in insertion order. When bounded, the oldest key
// is evicted first. maxSize <= 0 means unbounded.
type inMemoryIndex struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryIndex creates an index with configuration options.
func NewInMemoryIndex(opts ...Option) Index {
	d := &inMemoryIndex{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() any { return &node{} },
	}
	return d
}

func (d *inMemoryIndex) Remember(_ context.Context, key, jobID string) (string, bool) {
	if key == "" {
		return jobID, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		return n.jobID, true
	}
	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key = key
	n.jobID = jobID
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[key] = n
	d.size.Add(1)
	return jobID, false
}

func (d *inMemoryIndex) Lookup(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.entries[key]; ok {
		return n.jobID, true
	}
	return "", false
}

func (d *inMemoryIndex) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.entries[key]; ok {
		d.unlink(n)
	}
}

// evictOldest drops the tail. Must be called with d.mu held.
func (d *inMemoryIndex) evictOldest() {
	if d.tail != nil {
		d.unlink(d.tail)
	}
}

// unlink removes n from the list and the map. Must be called with d.mu held.
func (d *inMemoryIndex) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.entries, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

func (d *inMemoryIndex) Size() int64 {
	return d.size.Load()
}
