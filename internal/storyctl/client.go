package storyctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
)

// ServerError is a non-2xx answer from the storyloom API.
type ServerError struct {
	StatusCode int
	types.ErrorResponse
}

func (e *ServerError) Error() string {
	msg := fmt.Sprintf("%s: HTTP %d %s: %s", ErrServer, e.StatusCode, e.Code, e.Message)
	if len(e.Problems) > 0 {
		msg += " (" + strings.Join(e.Problems, "; ") + ")"
	}
	return msg
}

func (e *ServerError) Unwrap() error { return ErrServer }

// do sends body as JSON and decodes a 2xx answer into out.
func (c *CLI) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	c.log.Debug(ctx, "api request", logger.String("method", method), logger.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServerError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&se.ErrorResponse); err != nil {
			se.Message = http.StatusText(resp.StatusCode)
		}
		return se
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
