package storyctl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/phonics"
)

func (c *CLI) gradeCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "grade [K|1-6]",
		Short: "Show the reading expectations of a grade",
		Long:  "Prints sentence length, syllable, vocabulary and Lexile expectations for one grade or for all of them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			grades := model.Grades()
			if len(args) == 1 {
				g, err := model.ParseGrade(args[0])
				if err != nil {
					return err
				}
				grades = []model.GradeLevel{g}
			}

			summaries := make([]grade.Summary, 0, len(grades))
			for _, g := range grades {
				summaries = append(summaries, grade.Describe(g))
			}
			switch output {
			case FormatJSON:
				return writeJSON(c.out, summaries)
			case FormatYAML:
				return writeYAML(c.out, summaries)
			}

			p := printer{c.out}
			for _, s := range summaries {
				printGrade(p, output, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", FormatText, "Output format: text, json, yaml or markdown")
	return cmd
}

func printGrade(p printer, format string, s grade.Summary) {
	if format == FormatMarkdown {
		fmt.Fprintf(p.w, "## %s\n\n", s.DisplayName)
		fmt.Fprintf(p.w, "- Sentences: %s\n- Syllables: %s\n- Vocabulary: %s\n- Structures: %s\n- Lexile: %s\n- Focus: %s\n\n",
			s.WordRange, s.SyllableLimit, s.VocabularyLevel, s.SentenceTypes, s.LexileRange, s.KeyFocus)
		return
	}
	p.Title("%s", s.DisplayName)
	p.Field("Sentences", s.WordRange)
	p.Field("Syllables", s.SyllableLimit)
	p.Field("Vocabulary", s.VocabularyLevel)
	p.Field("Structures", s.SentenceTypes)
	p.Field("Lexile", s.LexileRange)
	p.Field("Focus", s.KeyFocus)
}

func (c *CLI) phonicsCommand() *cobra.Command {
	var (
		skill, gradeFlag, text, file, theme, output string
	)
	cmd := &cobra.Command{
		Use:   "phonics",
		Short: "Word bank, writing prompts and text analysis for a phonics skill",
		Long: `Without text, prints the grade's word bank and writing prompts for the skill.
With --text or --file, also counts pattern words and checks the text against
the grade's sentence limits. No model calls are made.`,
		Example: `  storyctl phonics -k "sh digraph" --grade 1
  storyctl phonics -k "ch" --grade 2 --text "The chick had lunch."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			g, err := model.ParseGrade(gradeFlag)
			if err != nil {
				return err
			}
			if file != "" {
				b, err := readSource(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				text = string(b)
			}

			rep := phonicsReport{
				Skill:          skill,
				Pattern:        phonics.ExtractPattern(skill),
				GradeLevel:     g,
				WordBank:       phonics.WordBankFor(skill, g),
				WritingPrompts: phonics.WritingPrompts(skill, g, theme),
			}
			if strings.TrimSpace(text) != "" {
				story := model.StoryFromText("", text)
				analysis := phonics.AnalyzeStory(story, skill)
				validation := phonics.ValidateIntegration(analysis, g)
				gradeCheck := grade.ValidateStory(story, g)
				rep.Analysis, rep.Validation, rep.Grade = &analysis, &validation, &gradeCheck
			}

			switch output {
			case FormatJSON:
				return writeJSON(c.out, rep)
			case FormatYAML:
				return writeYAML(c.out, rep)
			case FormatMarkdown:
				writePhonicsMarkdown(c.out, rep)
				return nil
			}
			printPhonics(printer{c.out}, rep)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&skill, "skill", "k", "", "Phonics skill, e.g. \"sh digraph\"")
	fl.StringVar(&gradeFlag, "grade", "1", "Grade level: K or 1-6")
	fl.StringVar(&text, "text", "", "Text to analyse")
	fl.StringVarP(&file, "file", "f", "", "Read the text from a file, - for stdin")
	fl.StringVar(&theme, "theme", "adventure", "Theme used in writing prompts")
	fl.StringVarP(&output, "output", "o", FormatText, "Output format: text, json, yaml or markdown")
	_ = cmd.MarkFlagRequired("skill")
	return cmd
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// phonicsReport is the output of the phonics command.
type phonicsReport struct {
	Skill          string                       `json:"phonicSkill"`
	Pattern        string                       `json:"pattern"`
	GradeLevel     model.GradeLevel             `json:"gradeLevel"`
	WordBank       []string                     `json:"wordBank"`
	WritingPrompts []string                     `json:"writingPrompts"`
	Analysis       *model.PhonicsAnalysis       `json:"analysis,omitempty"`
	Validation     *model.IntegrationValidation `json:"validation,omitempty"`
	Grade          *model.StoryValidation       `json:"gradeValidation,omitempty"`
}

func printPhonics(p printer, r phonicsReport) {
	pattern := r.Pattern
	if pattern == "" {
		pattern = "no known pattern"
	}
	p.Title("%s (%s) for %s", r.Skill, pattern, r.GradeLevel.Display())
	p.Field("Word bank", strings.Join(r.WordBank, ", "))
	p.List("Writing prompts", r.WritingPrompts)

	if r.Analysis == nil {
		return
	}
	p.Separator()
	a := r.Analysis
	p.Field("Pattern words", a.TotalWords)
	p.Field("Unique words", strings.Join(a.UniqueWords, ", "))
	p.Field("Sentences", a.SentenceCount)
	p.Field("Integration", a.Integration)
	p.Field("Coverage", fmt.Sprintf("%.2f pattern words per sentence", a.Coverage))

	if v := r.Validation; v != nil {
		if v.MeetsGradeStandards {
			p.Success("Phonics integration score %.2f meets grade standards", v.Score)
		} else {
			p.Warning("Phonics integration score %.2f is below grade standards", v.Score)
		}
		p.List("Issues", v.Issues)
		p.List("Recommendations", v.Recommendations)
	}
	if gv := r.Grade; gv != nil {
		if gv.Valid {
			p.Success("All %d sentences fit %s", gv.Stats.TotalSentences, r.GradeLevel.Display())
			return
		}
		p.Warning("%d of %d sentences fit %s", gv.Stats.ValidSentences, gv.Stats.TotalSentences, r.GradeLevel.Display())
		for _, issue := range gv.Issues {
			p.List(issue.Location+": "+issue.Sentence, issue.Issues)
		}
	}
}

func writePhonicsMarkdown(w io.Writer, r phonicsReport) {
	fmt.Fprintf(w, "# %s for %s\n\n", r.Skill, r.GradeLevel.Display())
	fmt.Fprintf(w, "**Pattern:** %s\n\n", r.Pattern)
	fmt.Fprintf(w, "**Word bank:** %s\n\n", strings.Join(r.WordBank, ", "))
	if len(r.WritingPrompts) > 0 {
		fmt.Fprint(w, "## Writing prompts\n\n")
		for _, prompt := range r.WritingPrompts {
			fmt.Fprintf(w, "- %s\n", prompt)
		}
		fmt.Fprintln(w)
	}
	if a := r.Analysis; a != nil {
		fmt.Fprint(w, "## Analysis\n\n")
		fmt.Fprintf(w, "- Pattern words: %d\n- Integration: %s\n- Coverage: %.2f per sentence\n", a.TotalWords, a.Integration, a.Coverage)
		if v := r.Validation; v != nil {
			fmt.Fprintf(w, "- Integration score: %.2f\n", v.Score)
		}
		if gv := r.Grade; gv != nil {
			fmt.Fprintf(w, "- Sentences within grade limits: %d of %d\n", gv.Stats.ValidSentences, gv.Stats.TotalSentences)
		}
	}
}
