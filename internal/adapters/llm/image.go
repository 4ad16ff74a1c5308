package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/storyloom/pkg/httpretry"
	"github.com/okian/storyloom/pkg/metrics"
)

const maxImageBytes = 32 << 20

// ImageConfig holds text-to-image generation parameters.
type ImageConfig struct {
	Model    string
	Width    int
	Height   int
	Steps    int
	Guidance float64
}

// DefaultImageConfig matches the gateway's FLUX defaults.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Model:    "black-forest-labs/FLUX.1-dev",
		Width:    1024,
		Height:   576,
		Steps:    10,
		Guidance: 4,
	}
}

// Image is one generated picture.
type Image struct {
	URL  string `json:"url"`
	Seed int64  `json:"seed"`
	NSFW bool   `json:"nsfw"`
}

// ImageClient calls "<base>/text-to-image".
type ImageClient struct {
	s   settings
	cfg ImageConfig
}

type imageRequest struct {
	Prompt            string  `json:"prompt"`
	ModelID           string  `json:"model_id"`
	NegativePrompt    string  `json:"negative_prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumImages         int     `json:"num_images_per_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	SafetyCheck       bool    `json:"safety_check"`
}

// NewImageClient builds the image client; zero config fields use defaults.
func NewImageClient(cfg ImageConfig, opts ...Option) *ImageClient {
	def := DefaultImageConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Steps <= 0 {
		cfg.Steps = def.Steps
	}
	if cfg.Guidance <= 0 {
		cfg.Guidance = def.Guidance
	}
	s := newSettings(opts)
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	if s.transport == nil {
		s.transport = newTransport(s)
	}
	return &ImageClient{s: s, cfg: cfg}
}

// Generate renders prompt and returns the first image.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (img Image, err error) {
	defer func() { metrics.RecordImageRequest(outcome(err)) }()

	body, err := json.Marshal(imageRequest{
		Prompt:            prompt,
		ModelID:           c.cfg.Model,
		Width:             c.cfg.Width,
		Height:            c.cfg.Height,
		NumImages:         1,
		NumInferenceSteps: c.cfg.Steps,
		GuidanceScale:     c.cfg.Guidance,
	})
	if err != nil {
		return Image{}, fmt.Errorf("encode image request: %w", err)
	}

	resp, err := c.s.transport.Do(ctx, httpretry.Request{
		Method: http.MethodPost,
		URL:    c.s.baseURL + "/text-to-image",
		Header: jsonHeader(c.s.token),
		Body:   body,
	})
	if err != nil {
		return Image{}, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return Image{}, &RequestError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: string(b)}
	}

	var out struct {
		Images []Image `json:"images"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return Image{}, &MalformedResponseError{Err: err}
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return Image{}, ErrImageMissing
	}
	img = out.Images[0]
	if strings.HasPrefix(img.URL, "/") {
		img.URL = c.s.baseURL + img.URL
	}
	return img, nil
}

// Download fetches an image and returns its bytes and content type.
func (c *ImageClient) Download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.s.transport.Do(ctx, httpretry.Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, "", transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &RequestError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(b)
	}
	return b, ct, nil
}
