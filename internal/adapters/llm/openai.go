package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/okian/storyloom/pkg/logger"
)

// OpenAI uses the official SDK against any OpenAI-compatible endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAI builds the SDK backend. The SDK does its own retries, bounded
// per call by the request's MaxAttempts.
func NewOpenAI(opts ...Option) *OpenAI {
	s := newSettings(opts)
	reqOpts := []option.RequestOption{option.WithAPIKey(s.token)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: s.timeout}))
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), model: s.model, log: s.log}
}

// Name implements Completer.
func (o *OpenAI) Name() string { return "openai" }

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	retries := max(0, req.MaxAttempts-1)

	resp, err := o.client.Chat.Completions.New(ctx, params, option.WithMaxRetries(retries))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &RequestError{
				StatusCode: apiErr.StatusCode,
				Status:     http.StatusText(apiErr.StatusCode),
				Body:       apiErr.RawJSON(),
				Err:        err,
			}
		}
		return "", &RequestError{Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrContentMissing
	}
	if resp.Choices[0].FinishReason == "length" {
		o.log.Warn(ctx, "completion cut at token budget", logger.Int("max_tokens", req.MaxTokens))
	}
	return resp.Choices[0].Message.Content, nil
}
