package model

// EducationalAnalysis is derived from a finished story without model calls.
type EducationalAnalysis struct {
	Phonics       PhonicsReview       `json:"phonics"`
	GradeLevel    GradeReview         `json:"gradeLevel"`
	Instructional InstructionalReview `json:"instructional"`
	Overall       OverallReview       `json:"overall"`
}

// PhonicsReview merges local counting with the evaluator's phonics view.
type PhonicsReview struct {
	Pattern           string                `json:"pattern"`
	TotalWords        int                   `json:"totalWords"`
	UniqueWords       []string              `json:"uniqueWords"`
	Integration       string                `json:"integration"`
	MeetsRequirements bool                  `json:"meetsRequirements"`
	Effectiveness     string                `json:"effectiveness"`
	EducationalValue  string                `json:"educationalValue"`
	Validation        IntegrationValidation `json:"validation"`
}

// GradeReview restates the grade check with derived measures.
type GradeReview struct {
	StoryValidation
	DevelopmentalAlignment string  `json:"developmentalAlignment"`
	ReadabilityScore       float64 `json:"readabilityScore"`
}

// InstructionalReview is classroom guidance for the story.
type InstructionalReview struct {
	ClassroomReady      bool     `json:"classroomReady"`
	TeacherNotes        string   `json:"teacherNotes"`
	ExtensionActivities []string `json:"extensionActivities"`
	WritingPrompts      []string `json:"writingPrompts,omitempty"`
}

// OverallReview is the headline verdict.
type OverallReview struct {
	EducationalEffectiveness float64  `json:"educationalEffectiveness"`
	RecommendedUse           string   `json:"recommendedUse"`
	Strengths                []string `json:"strengths"`
	Concerns                 []string `json:"concerns"`
}

// Assessment is the qualitative bucket of an overall score.
type Assessment string

// Assessment labels.
const (
	AssessmentExcellent        Assessment = "EXCELLENT"
	AssessmentGood             Assessment = "GOOD"
	AssessmentAcceptable       Assessment = "ACCEPTABLE"
	AssessmentNeedsImprovement Assessment = "NEEDS IMPROVEMENT"
)

// FinalReport is the teacher-facing summary of a run.
type FinalReport struct {
	OverallAssessment    Assessment       `json:"overallAssessment"`
	OverallScore         float64          `json:"overallScore"`
	MeetsThreshold       bool             `json:"meetsThreshold"`
	GradeLevel           GradeLevel       `json:"gradeLevel"`
	Summary              ReportSummary    `json:"summary"`
	EducationalStrengths []string         `json:"educationalStrengths"`
	CriticalIssues       []string         `json:"criticalIssues"`
	Recommendations      []string         `json:"recommendations"`
	TeacherGuidance      string           `json:"teacherGuidance"`
	QualityBreakdown     QualityBreakdown `json:"qualityBreakdown"`
}

// ReportSummary holds the report's headline counts.
type ReportSummary struct {
	TotalSentences      int    `json:"totalSentences"`
	PhonicsWords        int    `json:"phonicsWords"`
	PhonicsPattern      string `json:"phonicsPattern"`
	ReadyForInstruction bool   `json:"readyForInstruction"`
}

// QualityBreakdown lists the evaluator's sub-scores.
type QualityBreakdown struct {
	DevelopmentalAppropriateness float64 `json:"developmentalAppropriateness"`
	PhonicsIntegration           float64 `json:"phonicsIntegration"`
	StoryQuality                 float64 `json:"storyQuality"`
	InstructionalReadiness       float64 `json:"instructionalReadiness"`
}

// Result is what a facade run returns: the story plus its analysis and report.
type Result struct {
	Story               *Story               `json:"story"`
	EducationalAnalysis *EducationalAnalysis `json:"educationalAnalysis"`
	FinalReport         *FinalReport         `json:"finalReport"`
}
