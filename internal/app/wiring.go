package service

import (
	"fmt"

	"github.com/okian/storyloom/internal/adapters/artifact"
	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
)

// ChatFromConfig builds the chat client for the configured provider.
func ChatFromConfig(cfg *config.Config, l logger.Logger) (*llm.Client, error) {
	opts := []llm.Option{
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithToken(cfg.LLMToken),
		llm.WithModel(cfg.LLMModel),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithLogger(l),
	}
	var backend llm.Completer
	switch cfg.LLMProvider {
	case config.ProviderGateway:
		backend = llm.NewGateway(opts...)
	case config.ProviderOpenAI:
		backend = llm.NewOpenAI(opts...)
	default:
		return nil, fmt.Errorf("%w: unknown llm_provider %q", config.ErrInvalidConfig, cfg.LLMProvider)
	}
	return llm.NewClient(backend, l.Named("llm"), llm.WithMaxAttempts(cfg.LLMMaxAttempts)), nil
}

// ImagesFromConfig returns the image client, or nil when the provider has none.
func ImagesFromConfig(cfg *config.Config, l logger.Logger) companion.Images {
	if cfg.LLMProvider != config.ProviderGateway {
		return nil
	}
	return llm.NewImageClient(llm.ImageConfig{
		Model:    cfg.ImageModel,
		Width:    cfg.ImageWidth,
		Height:   cfg.ImageHeight,
		Steps:    cfg.ImageSteps,
		Guidance: cfg.ImageGuidance,
	},
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithToken(cfg.LLMToken),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithLogger(l),
	)
}

// DefaultsFromConfig maps configured defaults onto pipeline options.
func DefaultsFromConfig(cfg *config.Config) model.PipelineOptions {
	o := model.DefaultPipelineOptions()
	o.QualityThreshold = cfg.QualityThreshold
	o.MaxRevisionCycles = cfg.MaxRevisionCycles
	o.MaxTokens = cfg.MaxTokens
	o.RevisionConcurrency = cfg.RevisionConcurrency
	return o
}

// FromConfig wires a Service from configuration. The service is not started.
func FromConfig(cfg *config.Config, l logger.Logger) (*Service, error) {
	chat, err := ChatFromConfig(cfg, l)
	if err != nil {
		return nil, err
	}
	store, err := artifact.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}

	opts := []Option{
		WithLogger(l.Named("service")),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithStoreSize(cfg.StoreSize),
		WithRunTimeout(cfg.RunTimeout()),
		WithPipelineDefaults(DefaultsFromConfig(cfg)),
		WithArtifacts(store),
	}
	if images := ImagesFromConfig(cfg, l); images != nil {
		opts = append(opts, WithImages(images))
	}
	return New(chat, opts...), nil
}
