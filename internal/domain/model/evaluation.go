package model

import "strings"

// Priority ranks a proposed sentence revision.
type Priority string

// Revision priorities reported by the evaluator.
const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityMinor     Priority = "minor"
)

// Actionable reports whether revisions of this priority are acted on.
func (p Priority) Actionable() bool {
	switch Priority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PriorityCritical, PriorityImportant:
		return true
	default:
		return false
	}
}

// Evaluation is one evaluator verdict on the current story.
type Evaluation struct {
	OverallScore               float64               `json:"overallScore"`
	GradeAppropriateScore      float64               `json:"gradeAppropriateScore"`
	PhonicsScore               float64               `json:"phonicsScore"`
	StoryQualityScore          float64               `json:"storyQualityScore"`
	MeetsStandards             bool                  `json:"meetsStandards"`
	CriticalIssues             []string              `json:"criticalIssues"`
	ImprovementPriorities      []string              `json:"improvementPriorities"`
	EducationalStrengths       []string              `json:"educationalStrengths"`
	SentenceRevisions          []SentenceRevision    `json:"sentenceRevisions"`
	PhonicsAnalysis            *PhonicsAssessment    `json:"phonicsAnalysis,omitempty"`
	GradeLevelAnalysis         *GradeLevelAssessment `json:"gradeLevelAnalysis,omitempty"`
	EducationalRecommendations string                `json:"educationalRecommendations,omitempty"`
}

// Passes reports whether the evaluation clears threshold.
func (e *Evaluation) Passes(threshold float64) bool {
	return e != nil && e.MeetsStandards && e.OverallScore >= threshold
}

// SentenceRevision is a proposed fix for one sentence.
type SentenceRevision struct {
	Original           string   `json:"original"`
	ParagraphIndex     *int     `json:"paragraphIndex,omitempty"`
	SentenceIndex      *int     `json:"sentenceIndex,omitempty"`
	Issues             []string `json:"issues"`
	Priority           Priority `json:"priority"`
	SuggestedDirection string   `json:"suggestedDirection,omitempty"`
}

// Ref returns the index pair when both indices are present.
func (r SentenceRevision) Ref() (SentenceRef, bool) {
	if r.ParagraphIndex == nil || r.SentenceIndex == nil {
		return SentenceRef{}, false
	}
	return SentenceRef{Paragraph: *r.ParagraphIndex, Sentence: *r.SentenceIndex}, true
}

// PhonicsAssessment is the evaluator's view of phonics use.
type PhonicsAssessment struct {
	TargetPattern            string   `json:"targetPattern,omitempty"`
	WordsFound               []string `json:"wordsFound,omitempty"`
	WordCount                int      `json:"wordCount,omitempty"`
	Integration              string   `json:"integration,omitempty"`
	EducationalEffectiveness string   `json:"educationalEffectiveness,omitempty"`
}

// GradeLevelAssessment groups the evaluator's grade-fit findings.
type GradeLevelAssessment struct {
	SentenceComplexityIssues        []string `json:"sentenceComplexityIssues,omitempty"`
	VocabularyAppropriatenessIssues []string `json:"vocabularyAppropriatenessIssues,omitempty"`
	SyntaxDevelopmentalIssues       []string `json:"syntaxDevelopmentalIssues,omitempty"`
}
