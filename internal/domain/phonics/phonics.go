// Package phonics finds target phonics patterns in story text and grades
// how well a story integrates them.
package phonics

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/okian/storyloom/internal/domain/model"
)

type entry struct {
	pattern string
	re      *regexp.Regexp
}

func anywhere(p string) entry {
	return entry{pattern: p, re: regexp.MustCompile("(?i)" + p)}
}

func initial(p string) entry {
	return entry{pattern: p, re: regexp.MustCompile(`(?i)\b` + p)}
}

// catalog is ordered: ExtractPattern returns the first entry found in a skill.
var catalog = []entry{
	// digraphs
	anywhere("sh"), anywhere("ch"), anywhere("th"), anywhere("wh"), anywhere("ph"),

	// blends
	initial("bl"), initial("br"), initial("cl"), initial("cr"), initial("dr"),
	initial("fl"), initial("fr"), initial("gl"), initial("gr"), initial("pl"),
	initial("pr"), initial("sc"), initial("sk"), initial("sl"), initial("sm"),
	initial("sn"), initial("sp"), initial("st"), initial("sw"), initial("tr"),
	initial("tw"),

	// vowel teams
	anywhere("ai"), anywhere("ay"), anywhere("ea"), anywhere("ee"), anywhere("ie"),
	anywhere("oa"), anywhere("oe"), anywhere("ue"), anywhere("ui"),

	// r-controlled
	anywhere("ar"), anywhere("er"), anywhere("ir"), anywhere("or"), anywhere("ur"),

	// diphthongs
	anywhere("au"), anywhere("aw"), anywhere("oi"), anywhere("oy"), anywhere("ou"),
	anywhere("ow"),

	{pattern: "cvc", re: regexp.MustCompile(`(?i)^[bcdfghjklmnpqrstvwxyz][aeiou][bcdfghjklmnpqrstvwxyz]$`)},
}

var (
	digraphs    = []string{"sh", "ch", "th", "wh", "ph"}
	blends      = []string{"bl", "br", "cl", "cr", "dr", "fl", "fr", "gl", "gr", "pl", "pr", "sl", "sm", "sn", "sp", "st", "sw", "tr"}
	longVowels  = []string{"ai", "ay", "ea", "ee", "ie", "oa", "oe", "ue"}
	rControlled = []string{"ar", "er", "ir", "or", "ur"}

	quotedToken = regexp.MustCompile(`['"]([a-z]{1,3})['"]`)
	bareToken   = regexp.MustCompile(`[a-z]{2,3}`)
	punctuation = regexp.MustCompile(`[^\w\s]`)
)

// minWordsByGrade is the number of pattern words a story needs, K first.
var minWordsByGrade = [7]int{2, 2, 3, 3, 4, 4, 5}

const defaultMinWords = 3

// Regexp returns the matcher for a catalog pattern, or nil.
func Regexp(pattern string) *regexp.Regexp {
	for _, e := range catalog {
		if e.pattern == pattern {
			return e.re
		}
	}
	return nil
}

// ExtractPattern finds the catalog pattern a skill description targets,
// e.g. "Use 'sh' digraph words" gives "sh". It returns "" when nothing
// matches.
func ExtractPattern(skill string) string {
	s := strings.ToLower(skill)
	if s == "" {
		return ""
	}

	// A quoted pattern wins over a pattern that happens to sit inside
	// another word ("words with 'er'" must not give "th").
	for _, e := range catalog {
		if strings.Contains(s, "'"+e.pattern+"'") || strings.Contains(s, `"`+e.pattern+`"`) {
			return e.pattern
		}
	}
	for _, e := range catalog {
		if strings.Contains(s, e.pattern) {
			return e.pattern
		}
	}

	switch {
	case strings.Contains(s, "digraph"):
		if p := firstContained(s, digraphs); p != "" {
			return p
		}
	case strings.Contains(s, "blend"):
		if p := firstContained(s, blends); p != "" {
			return p
		}
	case strings.Contains(s, "long") && strings.Contains(s, "vowel"):
		if p := firstContained(s, longVowels); p != "" {
			return p
		}
	case strings.Contains(s, "r-controlled") || strings.Contains(s, "r controlled"):
		if p := firstContained(s, rControlled); p != "" {
			return p
		}
	}

	potential := bareToken.FindString(s)
	if m := quotedToken.FindStringSubmatch(s); m != nil {
		potential = m[1]
	}
	if Regexp(potential) != nil {
		return potential
	}
	return ""
}

func firstContained(s string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return c
		}
	}
	return ""
}

// WordBankFor returns example words for the skill's pattern, accumulated
// from kindergarten up to g without duplicates. An unsupported grade gets
// the grade 2 words only.
func WordBankFor(skill string, g model.GradeLevel) []string {
	bank, ok := wordBanks[ExtractPattern(skill)]
	if !ok {
		return []string{}
	}
	idx := g.Index()
	if idx < 0 {
		return append([]string{}, bank[2]...)
	}

	seen := make(map[string]struct{})
	out := []string{}
	for i := 0; i <= idx; i++ {
		for _, w := range bank[i] {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// FindMatches lowercases the sentence, strips punctuation and returns the
// words re matches, in order and with repeats.
func FindMatches(sentence string, re *regexp.Regexp) []string {
	if sentence == "" || re == nil {
		return []string{}
	}
	cleaned := punctuation.ReplaceAllString(strings.ToLower(sentence), "")
	out := []string{}
	for _, w := range strings.Fields(cleaned) {
		if re.MatchString(w) {
			out = append(out, w)
		}
	}
	return out
}

// ContainsPattern reports whether word contains the skill's pattern.
func ContainsPattern(word, skill string) bool {
	re := Regexp(ExtractPattern(skill))
	if re == nil || word == "" {
		return false
	}
	return re.MatchString(strings.ToLower(word))
}

// AnalyzeStory counts pattern words across every sentence of story.
func AnalyzeStory(story *model.Story, skill string) model.PhonicsAnalysis {
	pattern := ExtractPattern(skill)
	out := model.PhonicsAnalysis{
		Pattern:     pattern,
		UniqueWords: []string{},
		Integration: model.IntegrationInsufficient,
	}
	if story == nil || len(story.Paragraphs) == 0 {
		return out
	}

	re := Regexp(pattern)
	var found []string
	for _, p := range story.Paragraphs {
		for _, s := range p.Sentences {
			out.SentenceCount++
			found = append(found, FindMatches(s.Text, re)...)
		}
	}

	seen := make(map[string]struct{}, len(found))
	for _, w := range found {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out.UniqueWords = append(out.UniqueWords, w)
	}

	out.TotalWords = len(found)
	coverage := 0.0
	if out.SentenceCount > 0 {
		coverage = float64(out.TotalWords) / float64(out.SentenceCount)
	}

	switch {
	case out.TotalWords >= 4 && len(out.UniqueWords) >= 2 && coverage > 0.5:
		out.Integration = model.IntegrationExcellent
	case out.TotalWords >= 4 && len(out.UniqueWords) >= 2:
		out.Integration = model.IntegrationNatural
	case out.TotalWords >= 2:
		out.Integration = model.IntegrationAdequate
	}

	out.Coverage = round2(coverage)
	out.WordsPerSentence = round2(float64(out.TotalWords) / float64(max(1, out.SentenceCount)))
	return out
}

// RequiredWords is the minimum number of pattern words for grade g.
func RequiredWords(g model.GradeLevel) int {
	if idx := g.Index(); idx >= 0 {
		return minWordsByGrade[idx]
	}
	return defaultMinWords
}

// ValidateIntegration grades an analysis against grade g. The score
// multiplies volume, variety and distribution, capped at 1.
func ValidateIntegration(a model.PhonicsAnalysis, g model.GradeLevel) model.IntegrationValidation {
	required := RequiredWords(g)
	issues := []string{}
	recs := []string{}

	if a.TotalWords < required {
		issues = append(issues, fmt.Sprintf("Insufficient phonics words: %d/%d needed", a.TotalWords, required))
		recs = append(recs, fmt.Sprintf("Add %d more %s words naturally into actions or descriptions", required-a.TotalWords, a.Pattern))
	}
	if len(a.UniqueWords) < 2 {
		issues = append(issues, "Needs more variety in phonics words")
		recs = append(recs, fmt.Sprintf("Use different %s words to avoid repetition and build vocabulary", a.Pattern))
	}
	if a.Coverage < 0.3 {
		issues = append(issues, "Phonics pattern not well-distributed across story")
		recs = append(recs, "Spread phonics words more evenly throughout the story for better reinforcement")
	}

	score := (float64(a.TotalWords) / float64(required)) *
		(float64(len(a.UniqueWords)) / 2) *
		math.Min(1, a.Coverage/0.3)
	score = round2(math.Min(1, score))

	valid := len(issues) == 0
	return model.IntegrationValidation{
		Valid:               valid,
		Score:               score,
		Issues:              issues,
		Recommendations:     recs,
		EducationalValue:    string(a.Integration),
		MeetsGradeStandards: valid && score >= 0.7,
	}
}

// WritingPrompts suggests creative prompts that lean on the skill's words.
func WritingPrompts(skill string, g model.GradeLevel, theme string) []string {
	pattern := ExtractPattern(skill)
	words := WordBankFor(skill, g)
	if len(words) < 2 {
		return []string{fmt.Sprintf("Write a story about %s using %s sounds.", theme, pattern)}
	}

	sample := strings.Join(words[:min(4, len(words))], ", ")
	three := strings.Join(words[:min(3, len(words))], ", ")
	return []string{
		fmt.Sprintf("Create an adventure where characters use these %s words: %s", pattern, sample),
		fmt.Sprintf("Write about %s featuring actions with %s sounds like %s", theme, pattern, three),
		fmt.Sprintf("Tell a story where %s words help solve a problem: %s", pattern, sample),
		fmt.Sprintf("Describe characters doing things with %s words in a %s setting", pattern, theme),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
