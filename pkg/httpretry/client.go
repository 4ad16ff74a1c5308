// Package httpretry issues HTTP requests with bounded retry and jittered
// exponential backoff. Transport errors, 5xx and 429 are retried; any other
// status is handed back to the caller untouched. A Retry-After header on a
// retried response lengthens the wait, up to a cap. A done context always wins:
// the request fails with ErrCancelled and no further attempt is made.
package httpretry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Defaults for the backoff schedule.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 200 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
	DefaultJitter      = 100 * time.Millisecond
	DefaultMaxWait     = 30 * time.Second

	maxErrorBody = 64 << 10
)

var errNoResponse = errors.New("no response")

// Request is a buffered HTTP request that can be replayed across attempts.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	MaxAttempts int // 0 uses the client default
}

// Client replays Requests until they succeed, stop being retryable, or the
// attempt budget runs out.
type Client struct {
	http        *http.Client
	maxAttempts int
	base        time.Duration
	cap         time.Duration
	jitter      time.Duration
	maxWait     time.Duration
	onRetry     func(attempt, status int, err error)
}

// New creates a Client with the default schedule.
func New(opts ...Option) *Client {
	c := &Client{
		http:        http.DefaultClient,
		maxAttempts: DefaultMaxAttempts,
		base:        DefaultBaseDelay,
		cap:         DefaultMaxDelay,
		jitter:      DefaultJitter,
		maxWait:     DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req. On success the caller owns the response body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = c.maxAttempts
	}

	exhausted := &ExhaustedError{}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		var hint time.Duration
		resp, err := c.send(ctx, req)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, cancelled(ctxErr)
			}
			*exhausted = ExhaustedError{Err: err}
		case resp == nil:
			*exhausted = ExhaustedError{Err: errNoResponse}
		case !Retryable(resp.StatusCode):
			return resp, nil
		default:
			hint = retryAfter(resp.Header, time.Now())
			body := drain(resp)
			*exhausted = ExhaustedError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
		}
		exhausted.Attempts = attempt

		if attempt == attempts {
			break
		}
		if c.onRetry != nil {
			c.onRetry(attempt, exhausted.StatusCode, exhausted.Err)
		}
		if err := sleep(ctx, c.wait(attempt, hint)); err != nil {
			return nil, cancelled(err)
		}
	}
	return nil, exhausted
}

// Retryable reports whether a response status should be retried.
func Retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	return c.http.Do(httpReq)
}

// delay is min(cap, base*2^(attempt-1)) plus jitter in [0, jitter).
func (c *Client) delay(attempt int) time.Duration {
	d := c.base
	for i := 1; i < attempt && d < c.cap; i++ {
		d *= 2
	}
	if d > c.cap {
		d = c.cap
	}
	if c.jitter > 0 {
		d += rand.N(c.jitter)
	}
	return d
}

// wait is the backoff delay, stretched to the server's hint when that is
// longer. The hint is capped at maxWait.
func (c *Client) wait(attempt int, hint time.Duration) time.Duration {
	d := c.delay(attempt)
	if hint > c.maxWait {
		hint = c.maxWait
	}
	if hint > d {
		return hint
	}
	return d
}

// retryAfter parses Retry-After as delay-seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// drain reads a bounded prefix of the body for diagnostics and closes it.
func drain(resp *http.Response) string {
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	return string(b)
}
