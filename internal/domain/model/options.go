package model

import "context"

// EventSink receives timed pass events from a pipeline run.
type EventSink interface {
	OnEvent(ctx context.Context, ev TimedEvent)
}

// PipelineOptions are the resolved knobs for one run.
type PipelineOptions struct {
	QualityThreshold    float64 `json:"qualityThreshold"`
	MaxRevisionCycles   int     `json:"maxRevisionCycles"`
	MaxTokens           int     `json:"maxTokens,omitempty"`
	StrictPhonics       bool    `json:"strictPhonics"`
	RevisionConcurrency int     `json:"revisionConcurrency,omitempty"`

	// Analytics is not serialised; nil means events are dropped.
	Analytics EventSink `json:"-"`
}

// Default option values.
const (
	DefaultQualityThreshold  = 0.75
	DefaultMaxRevisionCycles = 2
	DefaultMaxTokens         = 8192
	DefaultReviseMaxTokens   = 4096
)

// DefaultPipelineOptions returns the defaults applied by the facade.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		QualityThreshold:    DefaultQualityThreshold,
		MaxRevisionCycles:   DefaultMaxRevisionCycles,
		StrictPhonics:       true,
		RevisionConcurrency: 1,
	}
}
