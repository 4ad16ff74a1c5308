// Package grade maps school grades to sentence constraints and checks text
// against them. Everything here is pure and safe for concurrent use.
package grade

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/okian/storyloom/internal/domain/model"
)

// Constraints bundles the limits for one grade.
type Constraints struct {
	MinWords            int      `json:"minWordsPerSentence"`
	MaxWords            int      `json:"maxWordsPerSentence"`
	MaxSyllables        int      `json:"maxSyllablesPerWord"`
	VocabularyTier      string   `json:"vocabularyTier"`
	SentenceStructure   string   `json:"sentenceStructure"`
	AllowedStructures   []string `json:"allowedStructures"`
	ForbiddenStructures []string `json:"forbiddenStructures"`
	LexileRange         string   `json:"lexileRange"`
	PreferredWords      []string `json:"preferredWords"`
	AvoidWords          []string `json:"avoidWords"`
	Examples            []string `json:"examples"`
}

// Summary is the display form of a grade's expectations.
type Summary struct {
	Grade           model.GradeLevel `json:"grade"`
	DisplayName     string           `json:"displayName"`
	WordRange       string           `json:"wordRange"`
	SyllableLimit   string           `json:"syllableLimit"`
	VocabularyLevel string           `json:"vocabularyLevel"`
	SentenceTypes   string           `json:"sentenceTypes"`
	LexileRange     string           `json:"lexileRange"`
	KeyFocus        string           `json:"keyFocus"`
}

// resolve falls back to grade 1 for unknown grades.
func resolve(g model.GradeLevel) model.GradeLevel {
	if _, ok := table[g]; ok {
		return g
	}
	return model.Grade1
}

// For returns the constraints for g. Unknown grades get grade 1's.
func For(g model.GradeLevel) Constraints {
	return table[resolve(g)]
}

// Examples returns model sentences for g.
func Examples(g model.GradeLevel) []string {
	return append([]string(nil), For(g).Examples...)
}

// KeyFocus describes the main instructional focus of g.
func KeyFocus(g model.GradeLevel) string {
	if f, ok := keyFocus[g]; ok {
		return f
	}
	return "General literacy development"
}

// Describe summarises the expectations of g for display.
func Describe(g model.GradeLevel) Summary {
	c := For(g)
	shown := resolve(g)
	return Summary{
		Grade:           shown,
		DisplayName:     shown.Display(),
		WordRange:       fmt.Sprintf("%d-%d words per sentence", c.MinWords, c.MaxWords),
		SyllableLimit:   fmt.Sprintf("Maximum %d syllables per word", c.MaxSyllables),
		VocabularyLevel: c.VocabularyTier,
		SentenceTypes:   strings.Join(c.AllowedStructures, ", "),
		LexileRange:     c.LexileRange,
		KeyFocus:        KeyFocus(shown),
	}
}

// ValidateSentence checks word count and syllable load against g.
func ValidateSentence(text string, g model.GradeLevel) model.SentenceValidation {
	c := For(g)
	words := strings.Fields(text)
	var issues []string

	if len(words) > c.MaxWords {
		issues = append(issues, fmt.Sprintf("Too many words: %d > %d", len(words), c.MaxWords))
	}
	if len(words) < c.MinWords {
		issues = append(issues, fmt.Sprintf("Too few words: %d < %d", len(words), c.MinWords))
	}

	heavy := []string{}
	for _, w := range words {
		if EstimateSyllables(w) > c.MaxSyllables {
			heavy = append(heavy, w)
		}
	}
	if len(heavy) > 0 {
		issues = append(issues, fmt.Sprintf("Complex words: %s exceed %d syllables", strings.Join(heavy, ", "), c.MaxSyllables))
	}

	return model.SentenceValidation{
		Valid:        len(issues) == 0,
		Issues:       issues,
		WordCount:    len(words),
		ComplexWords: heavy,
	}
}

// ValidateStory runs ValidateSentence over every sentence of story.
func ValidateStory(story *model.Story, g model.GradeLevel) model.StoryValidation {
	c := For(g)
	if story == nil || len(story.Paragraphs) == 0 {
		return model.StoryValidation{
			Issues: []model.GradeIssue{{Location: "Story structure", Issues: []string{"No paragraphs found"}}},
			Stats:  model.GradeStats{MaxWordLimit: c.MaxWords, MinWordLimit: c.MinWords, LexileRange: c.LexileRange},
		}
	}

	issues := []model.GradeIssue{}
	total, valid, words := 0, 0, 0
	for pi, p := range story.Paragraphs {
		for si, s := range p.Sentences {
			v := ValidateSentence(s.Text, g)
			total++
			words += v.WordCount
			if v.Valid {
				valid++
				continue
			}
			issues = append(issues, model.GradeIssue{
				Location: fmt.Sprintf("Paragraph %d, Sentence %d", pi+1, si+1),
				Sentence: s.Text,
				Issues:   v.Issues,
			})
		}
	}

	stats := model.GradeStats{
		TotalSentences: total,
		ValidSentences: valid,
		MaxWordLimit:   c.MaxWords,
		MinWordLimit:   c.MinWords,
		LexileRange:    c.LexileRange,
	}
	if total > 0 {
		stats.AverageWordCount = math.Round(float64(words)/float64(total)*10) / 10
		stats.PassRate = int(math.Round(float64(valid) / float64(total) * 100))
	}

	return model.StoryValidation{Valid: len(issues) == 0, Issues: issues, Stats: stats}
}

// EstimateSyllables counts vowel groups with silent-e and consonant-le
// adjustments. Words of three characters or fewer count as one.
func EstimateSyllables(word string) int {
	if len(word) <= 3 {
		return 1
	}
	w := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, word)
	if w == "" {
		return 1
	}

	n := 0
	prevVowel := false
	for _, r := range w {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") && n > 1 {
		n--
	}
	if strings.HasSuffix(w, "le") && len(w) > 2 && !strings.ContainsRune("aeiou", rune(w[len(w)-3])) {
		n++
	}
	return max(1, n)
}

// IsStructureAppropriate applies the syntax rules of K through 2. Grades 3
// and up accept any structure.
func IsStructureAppropriate(text string, g model.GradeLevel) bool {
	words := tokens(text)
	switch g {
	case model.GradeK:
		return !hasAny(words, "and", "but", "or") && !hasAny(words, subordinators...)
	case model.Grade1:
		return !hasAny(words, subordinators...) && !hasAny(words, "but", "or", "so", "yet")
	case model.Grade2:
		return !hasAny(words, subordinators...)
	default:
		return true
	}
}

func tokens(text string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		out[f] = true
	}
	return out
}

func hasAny(words map[string]bool, candidates ...string) bool {
	for _, c := range candidates {
		if words[c] {
			return true
		}
	}
	return false
}
