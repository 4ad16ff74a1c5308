package httpretry

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMaxAttempts sets the default attempt budget used when a Request does not set one.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff overrides the delay schedule. Zero values keep the defaults,
// except jitter where zero disables it.
func WithBackoff(base, maxDelay, jitter time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.base = base
		}
		if maxDelay > 0 {
			c.cap = maxDelay
		}
		if jitter >= 0 {
			c.jitter = jitter
		}
	}
}

// WithRetryHook registers a callback invoked before each backoff sleep.
// status is 0 when the attempt failed without a response.
func WithRetryHook(fn func(attempt, status int, err error)) Option {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// WithMaxWait caps how long a Retry-After header may delay the next attempt.
func WithMaxWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxWait = d
		}
	}
}
