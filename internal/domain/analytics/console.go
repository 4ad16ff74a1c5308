package analytics

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/okian/storyloom/internal/domain/model"
)

// Console prints a short human report of each pass.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// OnEvent implements Sink.
func (c *Console) OnEvent(_ context.Context, ev model.TimedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mark := okMark("✓")
	if !ev.OK {
		mark = failMark("✗")
	}
	head := func(what string) {
		fmt.Fprintf(c.w, "%s [%d] %s in %.1fms\n", mark, ev.Pass, what, ev.DurationMs())
	}

	switch m := ev.Meta.(type) {
	case model.GenerationMeta:
		head("Generated educational story")
		fmt.Fprintf(c.w, "    Title: %q\n", m.Title)
		if m.PhonicsTarget != "" {
			fmt.Fprintf(c.w, "    Phonics: %s\n", m.PhonicsTarget)
		}
		fmt.Fprintf(c.w, "    Length: %d sentences\n", m.SentenceCount)
	case model.EvaluationMeta:
		head("Educational assessment")
		fmt.Fprintf(c.w, "    Score: %.3f\n", m.OverallScore)
		standards := "Needs work"
		if m.MeetsStandards {
			standards = "Met"
		}
		fmt.Fprintf(c.w, "    Standards: %s\n", standards)
		fmt.Fprintf(c.w, "    Issues: %d critical\n", m.CriticalIssueCount)
	case model.RevisionMeta:
		head("Educational revisions")
		fmt.Fprintf(c.w, "    Critical revisions: %d\n", m.CriticalRevisions)
		fmt.Fprintf(c.w, "    Applied: %d\n", m.RevisionsApplied)
	case model.FailureMeta:
		head(string(ev.Name))
		fmt.Fprintf(c.w, "    error: %s\n", m.Error)
	default:
		head(string(ev.Name))
	}
}

// PrintSummary writes the recorder summary the way the CLI shows it.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "\nEducational Pipeline Summary:")
	fmt.Fprintf(w, "  Total Time: %dms\n", s.Pipeline.TotalTimeMs)
	fmt.Fprintf(w, "  Success Rate: %d%%\n", s.Pipeline.SuccessRate)
	fmt.Fprintf(w, "  Stories Generated: %d\n", s.Educational.StoriesGenerated)
	fmt.Fprintf(w, "  Revision Cycles: %d\n", s.Educational.RevisionCycles)
	fmt.Fprintf(w, "  Educational Assessments: %d\n", s.Educational.EducationalAssessments)
	if s.Performance.AvgEventMs > 0 {
		fmt.Fprintf(w, "  Avg Event Time: %dms\n", s.Performance.AvgEventMs)
	}
}
