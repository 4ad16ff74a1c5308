package storyctl

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/render"
)

// Output formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

func checkFormat(f string) error {
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
		return nil
	}
	return fmt.Errorf("%w: %q (want text, json, yaml or markdown)", ErrUnknownFormat, f)
}

// writeJSON indents v.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML emits v with its JSON field names in declaration order.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// writeResult prints a finished run in the chosen format.
func writeResult(w io.Writer, format string, res *model.Result) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	case FormatMarkdown:
		_, err := io.WriteString(w, render.ResultMarkdown(res))
		return err
	}
	printResult(printer{w}, res)
	return nil
}

func printResult(p printer, res *model.Result) {
	if res == nil || res.Story == nil {
		p.Warning("No story was produced")
		return
	}
	p.Title("%s", res.Story.Title)
	p.Separator()
	p.Line(render.PlainText(res.Story))
	p.Separator()

	r := res.FinalReport
	if r == nil {
		return
	}
	if r.MeetsThreshold {
		p.Success("Assessment: %s (%.3f)", r.OverallAssessment, r.OverallScore)
	} else {
		p.Warning("Assessment: %s (%.3f), below threshold", r.OverallAssessment, r.OverallScore)
	}
	p.Field("Grade", r.GradeLevel.Display())
	p.Field("Sentences", r.Summary.TotalSentences)
	p.Field("Phonics words", fmt.Sprintf("%d with %q", r.Summary.PhonicsWords, r.Summary.PhonicsPattern))
	if meta := res.Story.Pipeline; meta != nil {
		p.Field("Revision cycles", meta.RevisionCycles)
	}
	p.Field("Ready to teach", r.Summary.ReadyForInstruction)
	p.List("Strengths", r.EducationalStrengths)
	p.List("Critical issues", r.CriticalIssues)
	p.List("Recommendations", r.Recommendations)
	if r.TeacherGuidance != "" {
		p.Field("Teacher guidance", r.TeacherGuidance)
	}
}
