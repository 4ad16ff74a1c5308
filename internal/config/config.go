// Package config defines service configuration and its loader.
//
// Values are layered: defaults from New, then an optional .env file, then a
// YAML file named by STORY_CONFIG, then STORY_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Supported provider and backend names.
const (
	ProviderGateway = "gateway"
	ProviderOpenAI  = "openai"

	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the idempotency-key index.
	DedupeSize int `koanf:"dedupe_size"`
	// StoreSize bounds the number of jobs kept in memory.
	StoreSize int `koanf:"store_size"`
	// RunTimeoutMS caps a single pipeline run.
	RunTimeoutMS int `koanf:"run_timeout_ms"`

	// MetricsEnabled turns the Prometheus recorders on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsRefreshMS is the cadence of the gauge refresh loops.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	LLMProvider    string `koanf:"llm_provider"`
	LLMBaseURL     string `koanf:"llm_base_url"`
	LLMToken       string `koanf:"llm_token"`
	LLMModel       string `koanf:"llm_model"`
	LLMMaxAttempts int    `koanf:"llm_max_attempts"`
	LLMTimeoutMS   int    `koanf:"llm_timeout_ms"`

	ImageModel    string  `koanf:"image_model"`
	ImageWidth    int     `koanf:"image_width"`
	ImageHeight   int     `koanf:"image_height"`
	ImageSteps    int     `koanf:"image_steps"`
	ImageGuidance float64 `koanf:"image_guidance"`

	// Pipeline defaults applied when a submission does not override them.
	QualityThreshold  float64 `koanf:"quality_threshold"`
	MaxRevisionCycles int     `koanf:"max_revision_cycles"`
	// MaxTokens of 0 keeps the per-pass budgets (8192, and 4096 for revisions).
	MaxTokens           int `koanf:"max_tokens"`
	RevisionConcurrency int `koanf:"revision_concurrency"`

	// ArtifactBackend selects where illustrations live: memory or s3.
	ArtifactBackend string `koanf:"artifact_backend"`
	S3Endpoint      string `koanf:"s3_endpoint"`
	S3AccessKey     string `koanf:"s3_access_key"`
	S3SecretKey     string `koanf:"s3_secret_key"`
	S3Bucket        string `koanf:"s3_bucket"`
	S3Region        string `koanf:"s3_region"`
	S3UseSSL        bool   `koanf:"s3_use_ssl"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",

		QueueSize:    1024,
		WorkerCount:  runtime.NumCPU(),
		DedupeSize:   10_000,
		StoreSize:    1_000,
		RunTimeoutMS: 300_000,

		MetricsEnabled:   true,
		MetricsRefreshMS: 5_000,

		LLMProvider:    ProviderGateway,
		LLMBaseURL:     "http://localhost:8000",
		LLMModel:       "meta-llama/Meta-Llama-3.1-8B-Instruct",
		LLMMaxAttempts: 3,
		LLMTimeoutMS:   120_000,

		ImageModel:    "black-forest-labs/FLUX.1-dev",
		ImageWidth:    1024,
		ImageHeight:   576,
		ImageSteps:    10,
		ImageGuidance: 4,

		QualityThreshold:    0.75,
		MaxRevisionCycles:   2,
		MaxTokens:           0,
		RevisionConcurrency: 1,

		ArtifactBackend: BackendMemory,
		S3Bucket:        "storyloom-illustrations",
		S3Region:        "us-east-1",
	}
}

// RunTimeout is RunTimeoutMS as a duration.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMS) * time.Millisecond
}

// MetricsRefresh is MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// LLMTimeout is LLMTimeoutMS as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if c.QueueSize <= 0 {
		add("queue_size must be positive")
	}
	if c.WorkerCount <= 0 {
		add("worker_count must be positive")
	}
	if c.DedupeSize <= 0 {
		add("dedupe_size must be positive")
	}
	if c.StoreSize <= 0 {
		add("store_size must be positive")
	}
	if c.RunTimeoutMS <= 0 {
		add("run_timeout_ms must be positive")
	}
	if c.MetricsRefreshMS <= 0 {
		add("metrics_refresh_ms must be positive")
	}
	switch c.LLMProvider {
	case ProviderGateway:
		if c.LLMBaseURL == "" {
			add("llm_base_url is required for the gateway provider")
		}
	case ProviderOpenAI:
	default:
		add("llm_provider must be %q or %q", ProviderGateway, ProviderOpenAI)
	}
	if c.LLMModel == "" {
		add("llm_model must not be empty")
	}
	if c.LLMMaxAttempts <= 0 {
		add("llm_max_attempts must be positive")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		add("quality_threshold must be within [0,1]")
	}
	if c.MaxRevisionCycles < 0 {
		add("max_revision_cycles must not be negative")
	}
	if c.MaxTokens < 0 {
		add("max_tokens must not be negative")
	}
	if c.RevisionConcurrency <= 0 {
		add("revision_concurrency must be positive")
	}
	switch c.ArtifactBackend {
	case BackendMemory:
	case BackendS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			add("s3_endpoint and s3_bucket are required for the s3 backend")
		}
	default:
		add("artifact_backend must be %q or %q", BackendMemory, BackendS3)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
