// Package pipeline runs the generate, evaluate and revise loop that turns a
// story request into a graded phonics story.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/analytics"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Sampling temperatures per pass.
const (
	GenerateTemperature = 0.8
	EvaluateTemperature = 0.3
	ReviseTemperature   = 0.4
)

// MaxRevisionsPerCycle caps how many sentences one revision pass touches.
const MaxRevisionsPerCycle = 3

// Event pass numbers.
const (
	passGenerate = 1
	passEvaluate = 2
	passRevise   = 3
)

// Core drives the LLM through one story.
type Core struct {
	chat llm.Chatter
	log  logger.Logger
	now  func() time.Time
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the time source used for revision timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Core) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Core on top of chat.
func New(chat llm.Chatter, opts ...Option) *Core {
	c := &Core{chat: chat, log: logger.Named("pipeline"), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run generates a story for in and revises it until it passes the quality
// threshold, the cycle budget is spent, or nothing actionable remains.
//
// A failed generation is returned as an error. A failed evaluation ends the
// loop and the story is returned with the last good verdict. Cancellation is
// always returned as an error.
func (c *Core) Run(ctx context.Context, in model.StoryInput, opts model.PipelineOptions) (*model.Story, error) {
	sink := analytics.OrNop(opts.Analytics)

	story, err := c.generate(ctx, in, opts, sink)
	if err != nil {
		return nil, err
	}

	var final *model.Evaluation
	cycles := 0
	for {
		eval, err := c.evaluate(ctx, story, in, opts, sink)
		if err != nil {
			if llm.IsCancelled(err) {
				return nil, err
			}
			c.log.Warn(ctx, "evaluation failed, keeping current story",
				logger.Int("cycles", cycles), logger.Error(err))
			break
		}
		final = eval

		if eval.Passes(opts.QualityThreshold) {
			break
		}
		if cycles >= opts.MaxRevisionCycles {
			break
		}
		picks := selectRevisions(story, eval.SentenceRevisions)
		if len(picks) == 0 {
			break
		}
		if err := c.revise(ctx, story, in, opts, picks, sink); err != nil {
			return nil, err
		}
		cycles++
	}

	metrics.RecordRevisionCycles(cycles)
	story.Pipeline = &model.PipelineMeta{
		FinalEvaluation:  final,
		RevisionCycles:   cycles,
		QualityThreshold: opts.QualityThreshold,
		Timestamp:        c.now(),
	}
	return story, nil
}

func maxTokens(opts model.PipelineOptions, fallback int) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return fallback
}

func (c *Core) generate(ctx context.Context, in model.StoryInput, opts model.PipelineOptions, sink analytics.Sink) (*model.Story, error) {
	t := analytics.Start(sink, model.EventStoryGeneration, passGenerate)

	story, err := llm.Decode[model.Story](ctx, c.chat, generateMessages(in, opts.StrictPhonics),
		llm.WithTemperature(GenerateTemperature),
		llm.WithMaxTokens(maxTokens(opts, model.DefaultMaxTokens)))
	if err == nil && story.SentenceCount() == 0 {
		err = &llm.MalformedResponseError{Err: ErrEmptyStory}
	}
	if err != nil {
		t.Fail(ctx, err)
		return nil, err
	}
	story.FillWordCounts()
	story.Pipeline = nil

	t.End(ctx, true, model.GenerationMeta{
		Title:         story.Title,
		SentenceCount: story.SentenceCount(),
		PhonicsTarget: in.PhonicSkill,
	})
	return &story, nil
}

func (c *Core) evaluate(ctx context.Context, story *model.Story, in model.StoryInput, opts model.PipelineOptions, sink analytics.Sink) (*model.Evaluation, error) {
	t := analytics.Start(sink, model.EventStoryEvaluation, passEvaluate)

	eval, err := llm.Decode[model.Evaluation](ctx, c.chat, evaluateMessages(story, in, opts.StrictPhonics),
		llm.WithTemperature(EvaluateTemperature),
		llm.WithMaxTokens(maxTokens(opts, model.DefaultMaxTokens)))
	if err != nil {
		t.Fail(ctx, err)
		return nil, err
	}

	t.End(ctx, true, model.EvaluationMeta{
		OverallScore:       eval.OverallScore,
		MeetsStandards:     eval.MeetsStandards,
		CriticalIssueCount: len(eval.CriticalIssues),
	})
	return &eval, nil
}

// pick is one revision chosen for a pass. found is false when the revision
// names a sentence that does not exist.
type pick struct {
	rev   model.SentenceRevision
	ref   model.SentenceRef
	found bool
}

func resolve(story *model.Story, rev model.SentenceRevision) (model.SentenceRef, bool) {
	if ref, ok := rev.Ref(); ok {
		if _, in := story.At(ref); in {
			return ref, true
		}
	}
	return story.Find(rev.Original)
}

// selectRevisions keeps actionable revisions in evaluator order, drops those
// pointing at an already chosen sentence and caps the result.
func selectRevisions(story *model.Story, revs []model.SentenceRevision) []pick {
	var out []pick
	seen := make(map[model.SentenceRef]struct{})
	for _, rev := range revs {
		if len(out) == MaxRevisionsPerCycle {
			break
		}
		if !rev.Priority.Actionable() {
			continue
		}
		ref, found := resolve(story, rev)
		if found {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
		}
		out = append(out, pick{rev: rev, ref: ref, found: found})
	}
	return out
}

type revision struct {
	RevisedSentence string `json:"revisedSentence"`
}

type outcome struct {
	text string
	err  error
}

func (c *Core) revise(ctx context.Context, story *model.Story, in model.StoryInput, opts model.PipelineOptions, picks []pick, sink analytics.Sink) error {
	t := analytics.Start(sink, model.EventTargetedRevisions, passRevise)

	summary := storyContext(story)
	results := make([]outcome, len(picks))
	limit := max(1, opts.RevisionConcurrency)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	var cancelled error
launch:
	for i, p := range picks {
		if !p.found {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			cancelled = fmt.Errorf("%w: %w", llm.ErrCancelled, ctx.Err())
			break launch
		}
		original := p.rev.Original
		if s, ok := story.At(p.ref); ok {
			original = s.Text
		}
		msgs := reviseMessages(original, p.rev, in, summary)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			r, err := llm.Decode[revision](ctx, c.chat, msgs,
				llm.WithTemperature(ReviseTemperature),
				llm.WithMaxTokens(maxTokens(opts, model.DefaultReviseMaxTokens)))
			results[i] = outcome{text: r.RevisedSentence, err: err}
		}(i)
	}
	wg.Wait()

	if cancelled == nil {
		for _, r := range results {
			if r.err != nil && llm.IsCancelled(r.err) {
				cancelled = r.err
				break
			}
		}
	}
	if cancelled != nil {
		t.Fail(ctx, cancelled)
		return cancelled
	}

	applied := 0
	for i, p := range picks {
		if !p.found {
			c.log.Debug(ctx, "revision target not found", logger.String("original", p.rev.Original))
			continue
		}
		r := results[i]
		if r.err != nil {
			c.log.Warn(ctx, "sentence revision failed",
				logger.Int("paragraph", p.ref.Paragraph),
				logger.Int("sentence", p.ref.Sentence),
				logger.Error(r.err))
			continue
		}
		cur, _ := story.At(p.ref)
		text := strings.TrimSpace(r.text)
		if text == "" || text == strings.TrimSpace(cur.Text) {
			continue
		}
		if err := story.Replace(p.ref, text, c.now()); err != nil {
			continue
		}
		applied++
	}

	metrics.RecordRevisions(applied, len(picks)-applied)
	t.End(ctx, true, model.RevisionMeta{
		CriticalRevisions: len(picks),
		RevisionsApplied:  applied,
	})
	return nil
}
