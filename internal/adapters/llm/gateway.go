package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/storyloom/pkg/httpretry"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

const maxBody = 8 << 20

// Gateway posts chat requests to "<base>/llm" of an inference gateway.
type Gateway struct {
	s settings
}

type gatewayRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	Stream         bool           `json:"stream"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type gatewayResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewGateway builds the gateway backend.
func NewGateway(opts ...Option) *Gateway {
	s := newSettings(opts)
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	if s.transport == nil {
		s.transport = newTransport(s)
	}
	return &Gateway{s: s}
}

func newTransport(s settings) *httpretry.Client {
	return httpretry.New(
		httpretry.WithHTTPClient(&http.Client{Timeout: s.timeout}),
		httpretry.WithRetryHook(func(attempt, status int, err error) {
			reason := "transport"
			if status != 0 {
				reason = "status_" + strconv.Itoa(status)
			}
			metrics.RecordTransportRetry(reason)

			fields := []logger.Field{logger.Int("attempt", attempt), logger.String("reason", reason)}
			if err != nil {
				fields = append(fields, logger.Error(err))
			}
			s.log.Warn(context.Background(), "retrying provider call", fields...)
		}),
	)
}

// Name implements Completer.
func (g *Gateway) Name() string { return "gateway" }

// Complete implements Completer.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(gatewayRequest{
		Model:          g.s.model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	resp, err := g.s.transport.Do(ctx, httpretry.Request{
		Method:      http.MethodPost,
		URL:         g.s.baseURL + "/llm",
		Header:      jsonHeader(g.s.token),
		Body:        body,
		MaxAttempts: req.MaxAttempts,
	})
	if err != nil {
		return "", transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", &RequestError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: string(b)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return "", &RequestError{StatusCode: resp.StatusCode, Err: err}
	}
	var out gatewayResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &MalformedResponseError{Content: string(raw), Err: err}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrContentMissing
	}
	return out.Choices[0].Message.Content, nil
}

func jsonHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func transportError(err error) error {
	if errors.Is(err, ErrCancelled) {
		return err
	}
	var ex *httpretry.ExhaustedError
	if errors.As(err, &ex) {
		return &RequestError{StatusCode: ex.StatusCode, Status: http.StatusText(ex.StatusCode), Body: ex.Body, Err: ex}
	}
	return &RequestError{Err: err}
}
