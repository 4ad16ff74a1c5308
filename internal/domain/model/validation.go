package model

// SentenceValidation is the grade check of one sentence.
type SentenceValidation struct {
	Valid        bool     `json:"isValid"`
	Issues       []string `json:"issues"`
	WordCount    int      `json:"wordCount"`
	ComplexWords []string `json:"complexWords"`
}

// GradeIssue locates a failing sentence, e.g. "Paragraph 1, Sentence 2".
type GradeIssue struct {
	Location string   `json:"location"`
	Sentence string   `json:"sentence"`
	Issues   []string `json:"issues"`
}

// GradeStats summarises a story-level grade check.
type GradeStats struct {
	TotalSentences   int     `json:"totalSentences"`
	ValidSentences   int     `json:"validSentences"`
	AverageWordCount float64 `json:"averageWordCount"`
	MaxWordLimit     int     `json:"maxWordLimit"`
	MinWordLimit     int     `json:"minWordLimit"`
	LexileRange      string  `json:"lexileRange"`
	PassRate         int     `json:"passRate"`
}

// StoryValidation aggregates sentence checks across a story.
type StoryValidation struct {
	Valid  bool         `json:"isValid"`
	Issues []GradeIssue `json:"issues"`
	Stats  GradeStats   `json:"stats"`
}

// Integration labels how naturally a phonics pattern appears in a story.
type Integration string

// Integration labels, best first.
const (
	IntegrationExcellent    Integration = "excellent"
	IntegrationNatural      Integration = "natural"
	IntegrationAdequate     Integration = "adequate"
	IntegrationInsufficient Integration = "insufficient"
)

// PhonicsAnalysis counts target-pattern words in a story.
type PhonicsAnalysis struct {
	Pattern          string      `json:"pattern"`
	TotalWords       int         `json:"totalWords"`
	UniqueWords      []string    `json:"uniqueWords"`
	SentenceCount    int         `json:"sentenceCount"`
	Integration      Integration `json:"integration"`
	Coverage         float64     `json:"coverage"`
	WordsPerSentence float64     `json:"wordsPerSentence"`
}

// IntegrationValidation grades a PhonicsAnalysis against grade expectations.
type IntegrationValidation struct {
	Valid               bool     `json:"isValid"`
	Score               float64  `json:"score"`
	Issues              []string `json:"issues"`
	Recommendations     []string `json:"recommendations"`
	EducationalValue    string   `json:"educationalValue"`
	MeetsGradeStandards bool     `json:"meetsGradeStandards"`
}
