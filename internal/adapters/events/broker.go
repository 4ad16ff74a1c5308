// Package events fans pipeline progress out to live stream subscribers.
package events

import (
	"context"
	"sync"

	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

const defaultBuffer = 32

// Broker delivers stream messages per job. Publishing never blocks: a slow
// subscriber loses its oldest pending message.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	logger logger.Logger
}

type subscription struct {
	ch     chan types.StreamMessage
	done   chan struct{}
	closed bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithBuffer sets the per-subscriber buffer.
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBroker creates an empty broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("events")
	}
	return b
}

// Subscribe returns a channel of messages for jobID. It is closed when the
// job finishes or ctx ends.
func (b *Broker) Subscribe(ctx context.Context, jobID string) <-chan types.StreamMessage {
	sub := &subscription{
		ch:   make(chan types.StreamMessage, b.buffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	set, ok := b.subs[jobID]
	if !ok {
		set = make(map[*subscription]struct{})
		b.subs[jobID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	metrics.UpdateStreamClients(1)

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.dropLocked(jobID, sub)
	}()
	return sub.ch
}

// Publish sends msg to every subscriber of jobID.
func (b *Broker) Publish(jobID string, msg types.StreamMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[jobID] {
		b.push(jobID, sub, msg)
	}
}

// Finish sends msg and closes every subscription of jobID.
func (b *Broker) Finish(jobID string, msg types.StreamMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[jobID] {
		b.push(jobID, sub, msg)
		b.dropLocked(jobID, sub)
	}
}

// Clients returns the number of open subscriptions.
func (b *Broker) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}

func (b *Broker) push(jobID string, sub *subscription, msg types.StreamMessage) {
	select {
	case sub.ch <- msg:
		return
	default:
	}
	select {
	case <-sub.ch:
		b.logger.Warn(context.Background(), "stream subscriber lagging, dropped oldest message", logger.String("jobID", jobID))
	default:
	}
	select {
	case sub.ch <- msg:
	default:
	}
}

func (b *Broker) dropLocked(jobID string, sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	close(sub.done)
	metrics.UpdateStreamClients(-1)

	set := b.subs[jobID]
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, jobID)
	}
}
