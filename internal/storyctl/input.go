package storyctl

import (
	"github.com/spf13/cobra"

	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
)

// storyFlags are the story input and run override flags shared by
// generate and submit.
type storyFlags struct {
	input     model.StoryInput
	grade     string
	threshold float64
	cycles    int
	maxTokens int
	strict    bool
	output    string
}

func (f *storyFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input.Theme, "theme", "t", "", "Story theme, e.g. friendship")
	fl.StringVarP(&f.input.Genre, "genre", "g", "", "Story genre, e.g. adventure")
	fl.StringVarP(&f.input.PhonicSkill, "skill", "k", "", "Target phonics skill, e.g. \"sh digraph\"")
	fl.IntVarP(&f.input.Length, "length", "l", 0, "Number of sentences (1-40)")
	fl.StringVar(&f.grade, "grade", "1", "Grade level: K or 1-6")
	fl.Float64Var(&f.threshold, "threshold", 0, "Quality threshold between 0 and 1 (default from config)")
	fl.IntVar(&f.cycles, "cycles", 0, "Maximum revision cycles (default from config)")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "Completion budget per model call (default from config)")
	fl.BoolVar(&f.strict, "strict-phonics", true, "Ask the writer to use the phonics pattern as often as possible")
	fl.StringVarP(&f.output, "output", "o", FormatText, "Output format: text, json, yaml or markdown")
}

// resolve parses the grade flag into the input.
func (f *storyFlags) resolve() (model.StoryInput, error) {
	in := f.input
	g, err := model.ParseGrade(f.grade)
	if err != nil {
		return in, err
	}
	in.GradeLevel = g
	return in, checkFormat(f.output)
}

// overrides returns only the flags the user set.
func (f *storyFlags) overrides(cmd *cobra.Command) types.RunOptions {
	var o types.RunOptions
	fl := cmd.Flags()
	if fl.Changed("threshold") {
		o.QualityThreshold = &f.threshold
	}
	if fl.Changed("cycles") {
		o.MaxRevisionCycles = &f.cycles
	}
	if fl.Changed("max-tokens") {
		o.MaxTokens = &f.maxTokens
	}
	if fl.Changed("strict-phonics") {
		o.StrictPhonics = &f.strict
	}
	return o
}
