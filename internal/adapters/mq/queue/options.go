package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of waiting tasks.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
