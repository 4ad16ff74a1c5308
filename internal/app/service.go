// Package service wires the story pipeline, its job queue and the companion
// generators into the operations the HTTP API and the CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/storyloom/internal/adapters/artifact"
	"github.com/okian/storyloom/internal/adapters/events"
	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/adapters/mq/queue"
	"github.com/okian/storyloom/internal/adapters/mq/worker"
	"github.com/okian/storyloom/internal/adapters/repository"
	"github.com/okian/storyloom/internal/domain/analytics"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/dedupe"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Companion defaults when a request leaves the count at zero.
const (
	DefaultQuestionCount = 5
	DefaultPromptCount   = 3
)

// Service runs story jobs asynchronously and serves their results.
type Service struct {
	mu sync.RWMutex

	// Core components
	pipeline  *Pipeline
	companion *companion.Generator
	store     repository.Store
	dedupe    dedupe.Index
	queue     queue.Queue
	pool      *worker.Pool
	broker    *events.Broker
	artifacts artifact.Store
	validate  *validator.Validate

	// Configuration
	chat         llm.Chatter
	images       companion.Images
	pipelineOpts []PipelineOption
	defaults     model.PipelineOptions
	workerCount  int
	queueSize    int
	dedupeSize   int
	storeSize    int
	runTimeout   time.Duration
	newID        func() string

	// State
	started   bool
	startedAt time.Time
	active    atomic.Int64

	cmu     sync.Mutex
	cancels map[string]context.CancelCauseFunc

	logger logger.Logger
}

// New constructs a Service over chat. Call Start before submitting.
func New(chat llm.Chatter, opts ...Option) *Service {
	s := &Service{
		chat:        chat,
		defaults:    model.DefaultPipelineOptions(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  10_000,
		storeSize:   1_000,
		runTimeout:  5 * time.Minute,
		newID:       uuid.NewString,
		validate:    NewValidator(),
		cancels:     make(map[string]context.CancelCauseFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.artifacts == nil {
		s.artifacts = artifact.NewMemoryStore()
	}

	popts := append([]PipelineOption{WithDefaults(s.defaults)}, s.pipelineOpts...)
	s.pipeline = NewPipeline(chat, popts...)
	var copts []companion.Option
	if s.images != nil {
		copts = append(copts, companion.WithImages(s.images))
	}
	s.companion = companion.New(chat, copts...)
	return s
}

// Pipeline returns the facade used for runs.
func (s *Service) Pipeline() *Pipeline { return s.pipeline }

// Start creates the job store, queue and workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	store, err := repository.NewLRUStore(repository.WithCapacity(s.storeSize))
	if err != nil {
		return fmt.Errorf("create job store: %w", err)
	}
	s.store = store
	s.dedupe = dedupe.NewInMemoryIndex(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.broker = events.NewBroker()
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.RunnerFunc(s.runTask))
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "story service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("storeSize", s.storeSize),
		logger.Duration("runTimeout", s.runTimeout),
	)
	return nil
}

// Stop closes the queue and waits for running jobs until ctx ends.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping story service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "story service stopped")
	return err
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Validate checks any request body carrying validate tags.
func (s *Service) Validate(v any) error {
	return check(s.validate, v)
}

// Submit validates req and queues a job for it. A repeated idempotency key
// returns the job created for its first use.
func (s *Service) Submit(ctx context.Context, req types.SubmitRequest, idempotencyKey string) (types.SubmitResponse, error) {
	if !s.running() {
		return types.SubmitResponse{}, ErrNotStarted
	}

	var problems []string
	for _, v := range []any{req.Input, req.Options} {
		var ve *ValidationError
		if err := s.Validate(v); errors.As(err, &ve) {
			problems = append(problems, ve.Problems...)
		}
	}
	if len(problems) > 0 {
		return types.SubmitResponse{}, &ValidationError{Problems: problems}
	}

	id := s.newID()
	if existing, dup := s.dedupe.Remember(ctx, idempotencyKey, id); dup {
		metrics.RecordJobDuplicate()
		status := model.JobQueued
		if job, err := s.store.Get(ctx, existing); err == nil {
			status = job.Status
		}
		s.logger.Debug(ctx, "duplicate submission", logger.String("jobID", existing))
		return types.SubmitResponse{ID: existing, Status: status, Duplicate: true}, nil
	}

	job := &model.Job{
		ID:      id,
		Status:  model.JobQueued,
		Input:   req.Input,
		Options: s.pipeline.Resolve(Overrides(req.Options)...),
	}
	if err := s.store.Create(ctx, job); err != nil {
		s.dedupe.Forget(ctx, idempotencyKey)
		return types.SubmitResponse{}, fmt.Errorf("store job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, queue.Task{JobID: id}); err != nil {
		s.dedupe.Forget(ctx, idempotencyKey)
		_, _ = s.store.Update(ctx, id, func(j *model.Job) error {
			j.Status = model.JobFailed
			j.Error = err.Error()
			return nil
		})
		if errors.Is(err, queue.ErrFull) {
			return types.SubmitResponse{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return types.SubmitResponse{}, fmt.Errorf("enqueue job: %w", err)
	}

	metrics.RecordJobSubmitted()
	metrics.UpdateJobsActive(int(s.active.Add(1)))
	s.logger.Info(ctx, "story job queued", logger.String("jobID", id))
	return types.SubmitResponse{ID: id, Status: model.JobQueued}, nil
}

// Overrides turns the set fields of o into run options.
func Overrides(o types.RunOptions) []RunOption {
	var out []RunOption
	if o.QualityThreshold != nil {
		out = append(out, WithQualityThreshold(*o.QualityThreshold))
	}
	if o.MaxRevisionCycles != nil {
		out = append(out, WithMaxRevisionCycles(*o.MaxRevisionCycles))
	}
	if o.MaxTokens != nil {
		out = append(out, WithMaxTokens(*o.MaxTokens))
	}
	if o.StrictPhonics != nil {
		out = append(out, WithStrictPhonics(*o.StrictPhonics))
	}
	if o.RevisionConcurrency != nil {
		out = append(out, WithRevisionConcurrency(*o.RevisionConcurrency))
	}
	return out
}

func stored(o model.PipelineOptions, sink analytics.Sink) []RunOption {
	return []RunOption{
		WithQualityThreshold(o.QualityThreshold),
		WithMaxRevisionCycles(o.MaxRevisionCycles),
		WithMaxTokens(o.MaxTokens),
		WithStrictPhonics(o.StrictPhonics),
		WithRevisionConcurrency(o.RevisionConcurrency),
		WithAnalytics(sink),
	}
}

// runTask executes one queued job. It is the worker pool's Runner.
func (s *Service) runTask(ctx context.Context, task queue.Task) error {
	id := task.JobID

	runCtx, cancel := context.WithCancelCause(ctx)
	s.cmu.Lock()
	s.cancels[id] = cancel
	s.cmu.Unlock()
	defer func() {
		s.cmu.Lock()
		delete(s.cancels, id)
		s.cmu.Unlock()
		cancel(nil)
	}()
	runCtx, stop := context.WithTimeout(runCtx, s.runTimeout)
	defer stop()

	job, err := s.store.Update(ctx, id, func(j *model.Job) error {
		if j.Status != model.JobQueued {
			return ErrFinished
		}
		j.Status = model.JobRunning
		return nil
	})
	if errors.Is(err, ErrFinished) {
		return nil
	}
	if err != nil {
		s.active.Add(-1)
		return fmt.Errorf("start job %s: %w", id, err)
	}
	s.broker.Publish(id, types.StreamMessage{Type: types.StreamStatus, Status: model.JobRunning})

	sink := analytics.Multi(
		analytics.NewTelemetry(s.logger),
		analytics.SinkFunc(func(ctx context.Context, ev model.TimedEvent) {
			updated, err := s.store.Update(ctx, id, func(j *model.Job) error {
				j.Events = append(j.Events, ev)
				return nil
			})
			if err != nil {
				return
			}
			s.broker.Publish(id, types.StreamMessage{Type: types.StreamEvent, Seq: len(updated.Events), Event: &ev})
		}),
	)

	res, runErr := s.pipeline.Run(runCtx, job.Input, stored(job.Options, sink)...)
	status, message := s.outcome(runCtx, runErr)

	if _, err := s.store.Update(ctx, id, func(j *model.Job) error {
		j.Status = status
		j.Result = res
		j.Error = message
		return nil
	}); err != nil {
		s.logger.Error(ctx, "could not record job outcome", logger.Error(err))
	}
	metrics.UpdateJobsActive(int(s.active.Add(-1)))
	s.broker.Finish(id, types.StreamMessage{Type: types.StreamStatus, Status: status, Error: message})

	if status == model.JobFailed {
		return runErr
	}
	return nil
}

func (s *Service) outcome(runCtx context.Context, err error) (model.JobStatus, string) {
	switch Classify(err) {
	case OutcomeSucceeded:
		return model.JobSucceeded, ""
	case OutcomeCancelled:
		if errors.Is(context.Cause(runCtx), context.DeadlineExceeded) {
			return model.JobFailed, fmt.Sprintf("run timed out after %s", s.runTimeout)
		}
		return model.JobCancelled, llm.ErrCancelled.Error()
	}
	return model.JobFailed, err.Error()
}

// Get returns a job snapshot.
func (s *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Cancel stops a queued or running job. A running job reaches the
// cancelled state once its current call returns.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Job, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	job, err := s.store.Update(ctx, id, func(j *model.Job) error {
		switch {
		case j.Status.Terminal():
			return ErrFinished
		case j.Status == model.JobQueued:
			j.Status = model.JobCancelled
			j.Error = llm.ErrCancelled.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobCancelled {
		metrics.UpdateJobsActive(int(s.active.Add(-1)))
		s.broker.Finish(id, types.StreamMessage{Type: types.StreamStatus, Status: job.Status, Error: job.Error})
		s.logger.Info(ctx, "queued job cancelled", logger.String("jobID", id))
		return job, nil
	}

	s.cmu.Lock()
	cancel := s.cancels[id]
	s.cmu.Unlock()
	if cancel != nil {
		cancel(ErrJobCancel)
		s.logger.Info(ctx, "running job cancellation requested", logger.String("jobID", id))
	}
	return job, nil
}

// Stream subscribes to a job's live messages and returns the snapshot taken
// after subscribing. Messages with Seq at or below len(snapshot.Events)
// are already in the snapshot.
func (s *Service) Stream(ctx context.Context, id string) (*model.Job, <-chan types.StreamMessage, error) {
	if !s.running() {
		return nil, nil, ErrNotStarted
	}
	ch := s.broker.Subscribe(ctx, id)
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return job, ch, nil
}

func (s *Service) finished(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobSucceeded || job.Result == nil || job.Result.Story == nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotReady, id, job.Status)
	}
	return job, nil
}

// Result returns the result of a succeeded job.
func (s *Service) Result(ctx context.Context, id string) (*model.Result, error) {
	job, err := s.finished(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Result, nil
}

// Questions generates comprehension questions for a finished story.
func (s *Service) Questions(ctx context.Context, id string, req types.QuestionsRequest) ([]companion.Question, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	job, err := s.finished(ctx, id)
	if err != nil {
		return nil, err
	}
	count := req.Count
	if count == 0 {
		count = DefaultQuestionCount
	}
	return s.companion.Questions(ctx, job.Result.Story, job.Input, count, req.Types)
}

// Prompts generates pre-reading prompts for a finished story.
func (s *Service) Prompts(ctx context.Context, id string, req types.PromptsRequest) ([]string, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	job, err := s.finished(ctx, id)
	if err != nil {
		return nil, err
	}
	count := req.Count
	if count == 0 {
		count = DefaultPromptCount
	}
	return s.companion.Prompts(ctx, job.Result.Story, job.Input, count)
}

// Illustrate draws a picture for a finished story and stores it.
func (s *Service) Illustrate(ctx context.Context, id string) (model.Illustration, error) {
	job, err := s.finished(ctx, id)
	if err != nil {
		return model.Illustration{}, err
	}
	pic, err := s.companion.Illustrate(ctx, job.Result.Story)
	if err != nil {
		return model.Illustration{}, err
	}

	ill := model.Illustration{
		Key:         artifact.Key(id, uuid.NewString()+artifact.Extension(pic.ContentType)),
		Prompt:      pic.Prompt,
		ContentType: pic.ContentType,
		Size:        int64(len(pic.Data)),
		SourceURL:   pic.SourceURL,
		Seed:        pic.Seed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.artifacts.Put(ctx, ill.Key, artifact.Object{Data: pic.Data, ContentType: pic.ContentType}); err != nil {
		return model.Illustration{}, fmt.Errorf("store illustration: %w", err)
	}
	if _, err := s.store.Update(ctx, id, func(j *model.Job) error {
		j.Illustrations = append(j.Illustrations, ill)
		return nil
	}); err != nil {
		return model.Illustration{}, err
	}
	s.logger.Info(ctx, "illustration stored",
		logger.String("jobID", id),
		logger.String("key", ill.Key),
		logger.String("backend", s.artifacts.Backend()),
	)
	return ill, nil
}

// Illustration returns stored picture bytes.
func (s *Service) Illustration(ctx context.Context, key string) (artifact.Object, error) {
	return s.artifacts.Get(ctx, key)
}

// RandomInputs generates story ideas for a grade.
func (s *Service) RandomInputs(ctx context.Context, req types.RandomInputRequest) ([]companion.Idea, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if req.GradeLevel != "" && !req.GradeLevel.Valid() {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("gradeLevel %q is not one of K, 1-6", req.GradeLevel)}}
	}
	count := max(req.Count, 1)
	return s.companion.RandomOptions(ctx, req.GradeLevel, count)
}

// Stats reports job and queue counters.
func (s *Service) Stats(ctx context.Context) types.Stats {
	st := types.Stats{Jobs: map[model.JobStatus]int{}}
	if !s.running() {
		return st
	}
	jobs, _ := s.store.List(ctx, 0)
	for _, j := range jobs {
		st.Jobs[j.Status]++
	}
	st.StoredJobs = len(jobs)
	st.QueueLength = s.queue.Len()
	st.QueueCapacity = s.queue.Capacity()
	st.Workers = s.pool.Size()
	st.StreamClients = s.broker.Clients()
	st.DedupeKeys = s.dedupe.Size()
	s.mu.RLock()
	st.UptimeSeconds = time.Since(s.startedAt).Seconds()
	s.mu.RUnlock()
	metrics.UpdateJobsStored(st.StoredJobs)
	return st
}
