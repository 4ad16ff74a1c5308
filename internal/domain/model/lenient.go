package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Model output is loosely typed: counts arrive as "2", notes as lists.
// The decoders below accept those shapes for fields the pipeline can
// recompute or only displays, so a stray type never fails a pass.

// looseNumber decodes a JSON number or numeric string. Other values leave it unset.
type looseNumber struct {
	f  float64
	ok bool
}

func (l *looseNumber) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	l.f, l.ok = f, true
	return nil
}

func (l looseNumber) whole() int { return int(l.f) }

func (l looseNumber) ptr() *int {
	if !l.ok {
		return nil
	}
	n := l.whole()
	return &n
}

// looseText decodes a string, or joins a list of values one per line.
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = looseText(flatten(v))
	return nil
}

// looseList decodes a list of values, or a single value as a one-item list.
type looseList []string

func (l *looseList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, flatten(item))
		}
		*l = out
	default:
		if s := strings.TrimSpace(flatten(t)); s != "" {
			*l = []string{s}
		}
	}
	return nil
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(flatten(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// UnmarshalJSON tolerates a textual word count and a single phonics word.
func (s *Sentence) UnmarshalJSON(b []byte) error {
	type plain Sentence
	aux := struct {
		*plain
		PhonicsWords looseList   `json:"phonicsWords"`
		WordCount    looseNumber `json:"wordCount"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.PhonicsWords = aux.PhonicsWords
	if aux.WordCount.ok {
		s.WordCount = aux.WordCount.whole()
	}
	return nil
}

// UnmarshalJSON tolerates a textual word total.
func (p *PhonicsIntegration) UnmarshalJSON(b []byte) error {
	type plain PhonicsIntegration
	aux := struct {
		*plain
		TotalPhonicsWords looseNumber `json:"totalPhonicsWords"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.TotalPhonicsWords.ok {
		p.TotalPhonicsWords = aux.TotalPhonicsWords.whole()
	}
	return nil
}

// UnmarshalJSON tolerates scores sent as strings, list fields sent as
// one string and recommendations sent as a list.
func (e *Evaluation) UnmarshalJSON(b []byte) error {
	type plain Evaluation
	aux := struct {
		*plain
		OverallScore               looseNumber `json:"overallScore"`
		GradeAppropriateScore      looseNumber `json:"gradeAppropriateScore"`
		PhonicsScore               looseNumber `json:"phonicsScore"`
		StoryQualityScore          looseNumber `json:"storyQualityScore"`
		CriticalIssues             looseList   `json:"criticalIssues"`
		ImprovementPriorities      looseList   `json:"improvementPriorities"`
		EducationalStrengths       looseList   `json:"educationalStrengths"`
		EducationalRecommendations looseText   `json:"educationalRecommendations"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *float64
		src looseNumber
	}{
		{&e.OverallScore, aux.OverallScore},
		{&e.GradeAppropriateScore, aux.GradeAppropriateScore},
		{&e.PhonicsScore, aux.PhonicsScore},
		{&e.StoryQualityScore, aux.StoryQualityScore},
	} {
		if f.src.ok {
			*f.dst = f.src.f
		}
	}
	e.CriticalIssues = aux.CriticalIssues
	e.ImprovementPriorities = aux.ImprovementPriorities
	e.EducationalStrengths = aux.EducationalStrengths
	e.EducationalRecommendations = string(aux.EducationalRecommendations)
	return nil
}

// UnmarshalJSON tolerates textual indices and a single issue string.
// An index that is not a number is treated as absent.
func (r *SentenceRevision) UnmarshalJSON(b []byte) error {
	type plain SentenceRevision
	aux := struct {
		*plain
		ParagraphIndex looseNumber `json:"paragraphIndex"`
		SentenceIndex  looseNumber `json:"sentenceIndex"`
		Issues         looseList   `json:"issues"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ParagraphIndex = aux.ParagraphIndex.ptr()
	r.SentenceIndex = aux.SentenceIndex.ptr()
	r.Issues = aux.Issues
	return nil
}

// UnmarshalJSON tolerates a textual word count.
func (a *PhonicsAssessment) UnmarshalJSON(b []byte) error {
	type plain PhonicsAssessment
	aux := struct {
		*plain
		WordsFound looseList   `json:"wordsFound"`
		WordCount  looseNumber `json:"wordCount"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.WordsFound = aux.WordsFound
	if aux.WordCount.ok {
		a.WordCount = aux.WordCount.whole()
	}
	return nil
}
