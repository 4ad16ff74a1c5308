// Package scoring turns a finished story and its final evaluation into the
// educational analysis and teacher-facing report.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/phonics"
)

// Default score bands.
const (
	defaultExcellent  = 0.85
	defaultGood       = 0.75
	defaultAcceptable = 0.65
	defaultClassroom  = 0.7

	// minPhonicsWords is the count a story needs to meet phonics requirements.
	minPhonicsWords = 3
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithBands sets the lower bounds of the EXCELLENT, GOOD and ACCEPTABLE labels.
// Bands that are not strictly descending are ignored.
func WithBands(excellent, good, acceptable float64) Option {
	return func(s *Scorer) {
		if excellent > good && good > acceptable && acceptable > 0 {
			s.excellent = excellent
			s.good = good
			s.acceptable = acceptable
		}
	}
}

// WithClassroomScore sets the score a story needs to be classroom ready.
func WithClassroomScore(score float64) Option {
	return func(s *Scorer) {
		if score > 0 && score <= 1 {
			s.classroom = score
		}
	}
}

// Scorer labels scores and builds analyses and reports.
type Scorer struct {
	excellent  float64
	good       float64
	acceptable float64
	classroom  float64
}

// New creates a Scorer with the default bands.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		excellent:  defaultExcellent,
		good:       defaultGood,
		acceptable: defaultAcceptable,
		classroom:  defaultClassroom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess buckets an overall score.
func (s *Scorer) Assess(score float64) model.Assessment {
	switch {
	case score >= s.excellent:
		return model.AssessmentExcellent
	case score >= s.good:
		return model.AssessmentGood
	case score >= s.acceptable:
		return model.AssessmentAcceptable
	default:
		return model.AssessmentNeedsImprovement
	}
}

// ClassroomReady reports whether the evaluation meets standards with a
// high enough score.
func (s *Scorer) ClassroomReady(eval *model.Evaluation) bool {
	return eval != nil && eval.MeetsStandards && eval.OverallScore >= s.classroom
}

// RecommendedUse is the headline classroom suggestion for an evaluation.
func (s *Scorer) RecommendedUse(eval *model.Evaluation) string {
	switch {
	case eval == nil || eval.OverallScore < s.acceptable:
		return "Needs revision before classroom use"
	case eval.OverallScore >= s.excellent:
		return "Excellent for independent and guided reading"
	case eval.OverallScore >= s.good:
		return "Good for guided reading with teacher support"
	default:
		return "Suitable for phonics practice with modifications"
	}
}

// Alignment describes how far a story is from its grade constraints.
func Alignment(v model.StoryValidation) string {
	if v.Valid {
		return "appropriate"
	}
	switch n := len(v.Issues); {
	case n <= 2:
		return "mostly appropriate"
	case n <= 5:
		return "some concerns"
	default:
		return "inappropriate"
	}
}

// Readability is average words per sentence plus the percentage of words with
// three or more syllables, to one decimal. Lower reads easier.
func Readability(story *model.Story) float64 {
	var words, sentences, heavy int
	for _, text := range story.Texts() {
		sentences++
		for _, w := range strings.Fields(text) {
			words++
			if grade.EstimateSyllables(w) >= 3 {
				heavy++
			}
		}
	}
	if sentences == 0 || words == 0 {
		return 0
	}
	avg := float64(words) / float64(sentences)
	ratio := float64(heavy) / float64(words)
	return Round(avg+ratio*100, 1)
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// TeacherNotes is the standard guidance paragraph for a story request.
func TeacherNotes(in model.StoryInput) string {
	return fmt.Sprintf("This story is designed for %s phonics instruction focusing on %q. "+
		"Use for guided reading, independent practice, or phonics reinforcement. "+
		"Encourage students to identify and discuss the target phonics pattern throughout the story.",
		in.GradeLevel.Display(), in.PhonicSkill)
}

// ExtensionActivities suggests follow-up classroom work.
func ExtensionActivities(in model.StoryInput) []string {
	return []string{
		fmt.Sprintf("Have students find and circle all words with the %s pattern", in.PhonicSkill),
		"Ask students to draw their favorite scene from the story",
		fmt.Sprintf("Discuss the story's theme: %s", in.Theme),
		"Create new sentences using the same phonics pattern",
		"Act out the story with classmates",
	}
}

func finalEvaluation(story *model.Story) *model.Evaluation {
	if story.Pipeline == nil {
		return nil
	}
	return story.Pipeline.FinalEvaluation
}

func phonicsReview(story *model.Story, in model.StoryInput, eval *model.Evaluation) model.PhonicsReview {
	local := phonics.AnalyzeStory(story, in.PhonicSkill)
	r := model.PhonicsReview{
		Pattern:          local.Pattern,
		TotalWords:       local.TotalWords,
		UniqueWords:      local.UniqueWords,
		Integration:      string(local.Integration),
		EducationalValue: "unknown",
		Validation:       phonics.ValidateIntegration(local, in.GradeLevel),
	}
	if eval != nil && eval.PhonicsAnalysis != nil {
		pa := eval.PhonicsAnalysis
		if pa.TargetPattern != "" {
			r.Pattern = pa.TargetPattern
		}
		if pa.WordCount > 0 {
			r.TotalWords = pa.WordCount
		}
		if len(pa.WordsFound) > 0 {
			r.UniqueWords = pa.WordsFound
		}
		if pa.Integration != "" {
			r.Integration = pa.Integration
		}
		if pa.EducationalEffectiveness != "" {
			r.EducationalValue = pa.EducationalEffectiveness
		}
	}
	r.Effectiveness = r.Integration
	r.MeetsRequirements = r.TotalWords >= minPhonicsWords
	return r
}

// Analyze builds the educational analysis of a finished story. It makes no
// model calls.
func (s *Scorer) Analyze(story *model.Story, in model.StoryInput) *model.EducationalAnalysis {
	eval := finalEvaluation(story)
	v := grade.ValidateStory(story, in.GradeLevel)

	a := &model.EducationalAnalysis{
		Phonics: phonicsReview(story, in, eval),
		GradeLevel: model.GradeReview{
			StoryValidation:        v,
			DevelopmentalAlignment: Alignment(v),
			ReadabilityScore:       Readability(story),
		},
		Instructional: model.InstructionalReview{
			ClassroomReady:      s.ClassroomReady(eval),
			TeacherNotes:        TeacherNotes(in),
			ExtensionActivities: ExtensionActivities(in),
			WritingPrompts:      phonics.WritingPrompts(in.PhonicSkill, in.GradeLevel, in.Theme),
		},
		Overall: model.OverallReview{
			RecommendedUse: s.RecommendedUse(eval),
			Strengths:      []string{},
			Concerns:       []string{},
		},
	}
	if eval != nil {
		a.Overall.EducationalEffectiveness = eval.OverallScore
		a.Overall.Strengths = nonNil(eval.EducationalStrengths)
		a.Overall.Concerns = nonNil(eval.CriticalIssues)
	}
	return a
}

// Report builds the final report for a story and its analysis.
func (s *Scorer) Report(story *model.Story, a *model.EducationalAnalysis, in model.StoryInput, threshold float64) *model.FinalReport {
	eval := finalEvaluation(story)
	if eval == nil {
		eval = &model.Evaluation{}
	}
	score := eval.OverallScore

	r := &model.FinalReport{
		OverallAssessment: s.Assess(score),
		OverallScore:      Round(score, 3),
		MeetsThreshold:    score >= threshold,
		GradeLevel:        in.GradeLevel,
		Summary: model.ReportSummary{
			TotalSentences:      story.SentenceCount(),
			PhonicsPattern:      "unknown",
			ReadyForInstruction: score >= threshold,
		},
		EducationalStrengths: nonNil(eval.EducationalStrengths),
		CriticalIssues:       nonNil(eval.CriticalIssues),
		Recommendations:      nonNil(eval.ImprovementPriorities),
		QualityBreakdown: model.QualityBreakdown{
			DevelopmentalAppropriateness: eval.GradeAppropriateScore,
			PhonicsIntegration:           eval.PhonicsScore,
			StoryQuality:                 eval.StoryQualityScore,
			InstructionalReadiness:       eval.OverallScore,
		},
	}
	if a != nil {
		r.Summary.PhonicsWords = a.Phonics.TotalWords
		if a.Phonics.Pattern != "" {
			r.Summary.PhonicsPattern = a.Phonics.Pattern
		}
		r.TeacherGuidance = a.Instructional.TeacherNotes
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
