// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// StoryInput describes the story a caller wants. It is not modified by a run.
type StoryInput struct {
	Theme       string     `json:"theme" yaml:"theme" validate:"required"`
	Genre       string     `json:"genre" yaml:"genre" validate:"required"`
	PhonicSkill string     `json:"phonicSkill" yaml:"phonicSkill" validate:"required"`
	Length      int        `json:"length" yaml:"length" validate:"min=1,max=40"`
	GradeLevel  GradeLevel `json:"gradeLevel" yaml:"gradeLevel" validate:"grade"`
}

// Story is the working document of one pipeline run.
type Story struct {
	Title              string              `json:"title"`
	Paragraphs         []Paragraph         `json:"paragraphs"`
	PhonicsIntegration *PhonicsIntegration `json:"phonicsIntegration,omitempty"`
	EducationalFocus   string              `json:"educationalFocus,omitempty"`
	Pipeline           *PipelineMeta       `json:"pipeline,omitempty"`
}

// Paragraph is an ordered group of sentences.
type Paragraph struct {
	Sentences []Sentence `json:"sentences"`
}

// Sentence is one line of the story with its phonics annotations.
type Sentence struct {
	Text              string     `json:"sentence"`
	PhonicsWords      []string   `json:"phonicsWords,omitempty"`
	WordCount         int        `json:"wordCount"`
	DesignNotes       string     `json:"designNotes,omitempty"`
	Revised           bool       `json:"revised,omitempty"`
	RevisionTimestamp *time.Time `json:"revisionTimestamp,omitempty"`
}

// PhonicsIntegration is the generator's own summary of its phonics use.
type PhonicsIntegration struct {
	TargetPattern       string `json:"targetPattern,omitempty"`
	TotalPhonicsWords   int    `json:"totalPhonicsWords,omitempty"`
	IntegrationStrategy string `json:"integrationStrategy,omitempty"`
}

// SentenceRef addresses a sentence by zero-based paragraph and sentence index.
type SentenceRef struct {
	Paragraph int `json:"paragraphIndex"`
	Sentence  int `json:"sentenceIndex"`
}

// PipelineMeta is attached to a story when the revision loop ends.
type PipelineMeta struct {
	FinalEvaluation  *Evaluation `json:"finalEvaluation"`
	RevisionCycles   int         `json:"revisionCycles"`
	QualityThreshold float64     `json:"qualityThreshold"`
	Timestamp        time.Time   `json:"timestamp"`
}

// SentenceCount is the number of sentences across all paragraphs.
func (s *Story) SentenceCount() int {
	n := 0
	for _, p := range s.Paragraphs {
		n += len(p.Sentences)
	}
	return n
}

// Texts returns every sentence text in reading order.
func (s *Story) Texts() []string {
	out := make([]string, 0, s.SentenceCount())
	for _, p := range s.Paragraphs {
		for _, sent := range p.Sentences {
			out = append(out, sent.Text)
		}
	}
	return out
}

// Refs returns the reference of every sentence in reading order.
func (s *Story) Refs() []SentenceRef {
	out := make([]SentenceRef, 0, s.SentenceCount())
	for pi, p := range s.Paragraphs {
		for si := range p.Sentences {
			out = append(out, SentenceRef{Paragraph: pi, Sentence: si})
		}
	}
	return out
}

// At returns the sentence at ref, or false when ref is out of range.
func (s *Story) At(ref SentenceRef) (*Sentence, bool) {
	if ref.Paragraph < 0 || ref.Paragraph >= len(s.Paragraphs) {
		return nil, false
	}
	p := &s.Paragraphs[ref.Paragraph]
	if ref.Sentence < 0 || ref.Sentence >= len(p.Sentences) {
		return nil, false
	}
	return &p.Sentences[ref.Sentence], true
}

// Find returns the first sentence whose text equals text exactly.
func (s *Story) Find(text string) (SentenceRef, bool) {
	for _, ref := range s.Refs() {
		if sent, _ := s.At(ref); sent.Text == text {
			return ref, true
		}
	}
	return SentenceRef{}, false
}

// Replace rewrites the sentence at ref and marks it revised.
func (s *Story) Replace(ref SentenceRef, text string, at time.Time) error {
	sent, ok := s.At(ref)
	if !ok {
		return ErrNoSentence
	}
	sent.Text = text
	sent.WordCount = CountWords(text)
	sent.Revised = true
	ts := at
	sent.RevisionTimestamp = &ts
	return nil
}

// FillWordCounts sets WordCount on sentences that arrived without one.
func (s *Story) FillWordCounts() {
	for pi := range s.Paragraphs {
		for si := range s.Paragraphs[pi].Sentences {
			sent := &s.Paragraphs[pi].Sentences[si]
			if sent.WordCount <= 0 {
				sent.WordCount = CountWords(sent.Text)
			}
		}
	}
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// StoryFromText splits raw text into a Story. Blank lines separate
// paragraphs; '.', '!' and '?' end sentences.
func StoryFromText(title, text string) *Story {
	s := &Story{Title: title}
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		var p Paragraph
		for _, sent := range splitSentences(block) {
			p.Sentences = append(p.Sentences, Sentence{Text: sent, WordCount: CountWords(sent)})
		}
		if len(p.Sentences) > 0 {
			s.Paragraphs = append(s.Paragraphs, p)
		}
	}
	return s
}

func splitSentences(block string) []string {
	var out []string
	start := 0
	runes := []rune(block)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && strings.ContainsRune(".!?\"'", runes[i+1]) {
			continue
		}
		if s := strings.Join(strings.Fields(string(runes[start:i+1])), " "); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.Join(strings.Fields(string(runes[start:])), " "); s != "" {
		out = append(out, s)
	}
	return out
}
