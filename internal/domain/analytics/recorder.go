package analytics

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/storyloom/internal/domain/model"
)

// Recorder keeps every event it sees and summarises them.
type Recorder struct {
	mu      sync.Mutex
	started time.Time
	events  []model.TimedEvent
	counts  EducationalMetrics
}

// PipelineMetrics counts events by outcome.
type PipelineMetrics struct {
	TotalTimeMs      int64 `json:"totalTimeMs"`
	TotalEvents      int   `json:"totalEvents"`
	SuccessfulEvents int   `json:"successfulEvents"`
	FailedEvents     int   `json:"failedEvents"`
	SuccessRate      int   `json:"successRate"`
}

// EducationalMetrics counts successful passes by kind.
type EducationalMetrics struct {
	StoriesGenerated       int `json:"storiesGenerated"`
	RevisionCycles         int `json:"revisionCycles"`
	EducationalAssessments int `json:"educationalAssessments"`
}

// Performance holds event durations in milliseconds.
type Performance struct {
	AvgEventMs     int64   `json:"avgEventTime"`
	SlowestEventMs float64 `json:"slowestEvent"`
	FastestEventMs float64 `json:"fastestEvent"`
}

// Summary is a snapshot of a Recorder.
type Summary struct {
	Pipeline    PipelineMetrics    `json:"pipelineMetrics"`
	Educational EducationalMetrics `json:"educationalMetrics"`
	Performance Performance        `json:"performance"`
}

// NewRecorder starts an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{started: time.Now()}
}

// OnEvent implements Sink.
func (r *Recorder) OnEvent(_ context.Context, ev model.TimedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if !ev.OK {
		return
	}
	switch ev.Name {
	case model.EventStoryGeneration:
		r.counts.StoriesGenerated++
	case model.EventStoryEvaluation:
		r.counts.EducationalAssessments++
	case model.EventTargetedRevisions:
		r.counts.RevisionCycles++
	}
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []model.TimedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.TimedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Summary computes totals, success rate and timing spread.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{Educational: r.counts}
	s.Pipeline.TotalTimeMs = time.Since(r.started).Milliseconds()
	s.Pipeline.TotalEvents = len(r.events)
	if len(r.events) == 0 {
		return s
	}

	var total float64
	s.Performance.FastestEventMs = math.Inf(1)
	for _, ev := range r.events {
		if ev.OK {
			s.Pipeline.SuccessfulEvents++
		} else {
			s.Pipeline.FailedEvents++
		}
		ms := ev.DurationMs()
		total += ms
		s.Performance.SlowestEventMs = math.Max(s.Performance.SlowestEventMs, ms)
		s.Performance.FastestEventMs = math.Min(s.Performance.FastestEventMs, ms)
	}
	n := float64(len(r.events))
	s.Pipeline.SuccessRate = int(math.Round(float64(s.Pipeline.SuccessfulEvents) / n * 100))
	s.Performance.AvgEventMs = int64(math.Round(total / n))
	return s
}
