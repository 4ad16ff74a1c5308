package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/analytics"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/pipeline"
	"github.com/okian/storyloom/internal/domain/scoring"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Outcome classifies how a run ended.
type Outcome string

// Run outcomes.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Classify maps a Run error to its Outcome.
func Classify(err error) Outcome {
	var ve *ValidationError
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.As(err, &ve):
		return OutcomeInvalid
	case llm.IsCancelled(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	}
	return OutcomeFailed
}

// RunOption overrides one pipeline option for a single run.
type RunOption func(*model.PipelineOptions)

// WithQualityThreshold sets the score at which a story stops being revised.
func WithQualityThreshold(t float64) RunOption {
	return func(o *model.PipelineOptions) { o.QualityThreshold = t }
}

// WithMaxRevisionCycles bounds the number of revise passes.
func WithMaxRevisionCycles(n int) RunOption {
	return func(o *model.PipelineOptions) { o.MaxRevisionCycles = n }
}

// WithMaxTokens overrides the completion budget of every call.
func WithMaxTokens(n int) RunOption {
	return func(o *model.PipelineOptions) { o.MaxTokens = n }
}

// WithAnalytics receives every timed pass event.
func WithAnalytics(s analytics.Sink) RunOption {
	return func(o *model.PipelineOptions) { o.Analytics = s }
}

// WithStrictPhonics toggles the hard phonics requirements in prompts.
func WithStrictPhonics(on bool) RunOption {
	return func(o *model.PipelineOptions) { o.StrictPhonics = on }
}

// WithRevisionConcurrency sets how many sentence revisions run at once.
func WithRevisionConcurrency(n int) RunOption {
	return func(o *model.PipelineOptions) { o.RevisionConcurrency = n }
}

// Pipeline validates requests, runs the core loop and attaches the
// educational analysis and final report.
type Pipeline struct {
	core     *pipeline.Core
	coreOpts []pipeline.Option
	scorer   *scoring.Scorer
	validate *validator.Validate
	defaults model.PipelineOptions
	logger   logger.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithDefaults replaces the option values used when a run does not override them.
func WithDefaults(o model.PipelineOptions) PipelineOption {
	return func(p *Pipeline) { p.defaults = o }
}

// WithScorer replaces the report scorer.
func WithScorer(s *scoring.Scorer) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithCoreOptions passes options through to the pipeline core.
func WithCoreOptions(opts ...pipeline.Option) PipelineOption {
	return func(p *Pipeline) { p.coreOpts = append(p.coreOpts, opts...) }
}

// NewPipeline builds a Pipeline over chat.
func NewPipeline(chat llm.Chatter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		scorer:   scoring.New(),
		validate: NewValidator(),
		defaults: model.DefaultPipelineOptions(),
		logger:   logger.Named("facade"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.core = pipeline.New(chat, p.coreOpts...)
	return p
}

// Defaults returns the option values runs start from.
func (p *Pipeline) Defaults() model.PipelineOptions { return p.defaults }

// Validate checks a story input without running anything.
func (p *Pipeline) Validate(in model.StoryInput) error {
	return check(p.validate, in)
}

// Resolve applies opts over the defaults.
func (p *Pipeline) Resolve(opts ...RunOption) model.PipelineOptions {
	o := p.defaults
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkOptions(o model.PipelineOptions) []string {
	var problems []string
	if o.QualityThreshold < 0 || o.QualityThreshold > 1 {
		problems = append(problems, "qualityThreshold must be within [0,1]")
	}
	if o.MaxRevisionCycles < 0 {
		problems = append(problems, "maxRevisionCycles must not be negative")
	}
	if o.MaxTokens < 0 {
		problems = append(problems, "maxTokens must not be negative")
	}
	return problems
}

// Run produces a story for in. Validation failures are *ValidationError,
// cancellation is returned as is, and every other failure is a
// *PipelineError.
func (p *Pipeline) Run(ctx context.Context, in model.StoryInput, opts ...RunOption) (*model.Result, error) {
	o := p.Resolve(opts...)

	var problems []string
	if err := p.Validate(in); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			problems = append(problems, ve.Problems...)
		}
	}
	problems = append(problems, checkOptions(o)...)
	if len(problems) > 0 {
		metrics.RecordPipelineRun(string(OutcomeInvalid))
		return nil, &ValidationError{Problems: problems}
	}

	story, err := p.core.Run(ctx, in, o)
	if err != nil {
		if llm.IsCancelled(err) {
			metrics.RecordPipelineRun(string(OutcomeCancelled))
			p.logger.Info(ctx, "story run cancelled")
			return nil, err
		}
		metrics.RecordPipelineRun(string(OutcomeFailed))
		p.logger.Error(ctx, "story run failed", logger.Error(err))
		return nil, &PipelineError{Err: err}
	}

	analysis := p.scorer.Analyze(story, in)
	report := p.scorer.Report(story, analysis, in, o.QualityThreshold)
	metrics.RecordPipelineRun(string(OutcomeSucceeded))
	p.logger.Info(ctx, "story run finished",
		logger.String("assessment", string(report.OverallAssessment)),
		logger.Float64("score", report.OverallScore),
		logger.Int("revisionCycles", story.Pipeline.RevisionCycles),
	)
	return &model.Result{Story: story, EducationalAnalysis: analysis, FinalReport: report}, nil
}
