// Package render formats stories for reading: plain text, Markdown and HTML.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/okian/storyloom/internal/domain/model"
)

var md = goldmark.New()

// PlainText joins each paragraph's sentences with spaces and paragraphs with
// a blank line. Empty sentences and paragraphs are dropped.
func PlainText(story *model.Story) string {
	if story == nil {
		return ""
	}
	paras := make([]string, 0, len(story.Paragraphs))
	for _, p := range story.Paragraphs {
		var parts []string
		for _, s := range p.Sentences {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			paras = append(paras, strings.Join(parts, " "))
		}
	}
	return strings.Join(paras, "\n\n")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escape(s string) string { return mdEscaper.Replace(s) }

// Markdown renders the story with its title as a level-one heading.
func Markdown(story *model.Story) string {
	if story == nil {
		return ""
	}
	var b strings.Builder
	if story.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escape(story.Title))
	}
	for _, para := range strings.Split(PlainText(story), "\n\n") {
		if para == "" {
			continue
		}
		b.WriteString(escape(para))
		b.WriteString("\n\n")
	}
	return b.String()
}

// ResultMarkdown renders the story followed by its report and classroom notes.
func ResultMarkdown(res *model.Result) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Markdown(res.Story))

	if r := res.FinalReport; r != nil {
		b.WriteString("## Report\n\n")
		fmt.Fprintf(&b, "- Assessment: **%s** (%.3f)\n", r.OverallAssessment, r.OverallScore)
		fmt.Fprintf(&b, "- Grade: %s\n", r.GradeLevel.Display())
		fmt.Fprintf(&b, "- Sentences: %d\n", r.Summary.TotalSentences)
		fmt.Fprintf(&b, "- Phonics: %d words with %q\n", r.Summary.PhonicsWords, r.Summary.PhonicsPattern)
		fmt.Fprintf(&b, "- Ready for instruction: %t\n\n", r.Summary.ReadyForInstruction)
		list(&b, "Strengths", r.EducationalStrengths)
		list(&b, "Critical issues", r.CriticalIssues)
		list(&b, "Recommendations", r.Recommendations)
	}

	if a := res.EducationalAnalysis; a != nil {
		if a.Overall.RecommendedUse != "" {
			fmt.Fprintf(&b, "**Recommended use:** %s\n\n", escape(a.Overall.RecommendedUse))
		}
		if a.Instructional.TeacherNotes != "" {
			fmt.Fprintf(&b, "## Teacher notes\n\n%s\n\n", escape(a.Instructional.TeacherNotes))
		}
		list(&b, "Extension activities", a.Instructional.ExtensionActivities)
		list(&b, "Writing prompts", a.Instructional.WritingPrompts)
	}
	return b.String()
}

func list(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", escape(it))
	}
	b.WriteString("\n")
}

// HTML converts Markdown to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
