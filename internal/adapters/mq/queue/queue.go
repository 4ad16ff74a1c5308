// Package queue holds submitted story jobs until a worker picks them up.
//
// The queue is bounded and never blocks producers: a full queue rejects the
// submission so the API can answer with backpressure instead of stalling.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/storyloom/pkg/metrics"
)

const defaultCapacity = 1024

// Task is one queued pipeline run. The job itself lives in the repository.
type Task struct {
	JobID      string
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task or fails with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns a channel of tasks. It is closed when the queue is
	// closed and drained, or when ctx ends.
	Dequeue(ctx context.Context) <-chan Task

	Len() int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a task without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return q.reject("closed", ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return q.reject("context_cancelled", err)
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}

	select {
	case q.tasks <- t:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		return q.reject("queue_full", fmt.Errorf("%w: %d tasks waiting", ErrFull, len(q.tasks)))
	}
}

func (q *InMemoryQueue) reject(kind string, err error) error {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", kind)
	return err
}

// Dequeue returns a channel that receives tasks as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tasks:
				if !ok {
					return
				}
				select {
				case out <- t:
					metrics.RecordQueueDequeue()
					metrics.RecordQueueProcessingLatency(float64(time.Since(t.EnqueuedAt).Milliseconds()))
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of waiting tasks.
func (q *InMemoryQueue) Len() int {
	q.observe()
	return len(q.tasks)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) observe() {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close stops new enqueues. Waiting tasks are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
