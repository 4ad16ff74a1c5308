package dedupe

// Option applies a configuration option to the in-memory index.
type Option func(*inMemoryIndex)

// WithMaxSize bounds the number of remembered keys. The oldest key is
// evicted first. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryIndex) {
		d.maxSize = maxSize
	}
}
