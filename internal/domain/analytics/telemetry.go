package analytics

import (
	"context"

	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Telemetry logs every event and feeds the pass metrics.
type Telemetry struct {
	log logger.Logger
}

// NewTelemetry logs through l, or the global "analytics" logger when nil.
func NewTelemetry(l logger.Logger) *Telemetry {
	if l == nil {
		l = logger.Named("analytics")
	}
	return &Telemetry{log: l}
}

// OnEvent implements Sink.
func (t *Telemetry) OnEvent(ctx context.Context, ev model.TimedEvent) {
	metrics.RecordPass(string(ev.Name), ev.OK, ev.DurationMs())

	fields := []logger.Field{
		logger.String("event", string(ev.Name)),
		logger.Int("pass", ev.Pass),
		logger.Bool("ok", ev.OK),
		logger.Float64("duration_ms", ev.DurationMs()),
	}
	switch m := ev.Meta.(type) {
	case model.GenerationMeta:
		fields = append(fields, logger.String("title", m.Title), logger.Int("sentences", m.SentenceCount))
	case model.EvaluationMeta:
		metrics.RecordEvaluationScore(m.OverallScore)
		fields = append(fields,
			logger.Float64("overall_score", m.OverallScore),
			logger.Bool("meets_standards", m.MeetsStandards),
			logger.Int("critical_issues", m.CriticalIssueCount),
		)
	case model.RevisionMeta:
		fields = append(fields,
			logger.Int("critical_revisions", m.CriticalRevisions),
			logger.Int("revisions_applied", m.RevisionsApplied),
		)
	case model.FailureMeta:
		t.log.Warn(ctx, "pipeline pass failed", append(fields, logger.String("error", m.Error))...)
		return
	}
	t.log.Info(ctx, "pipeline pass", fields...)
}
