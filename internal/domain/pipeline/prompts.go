package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/phonics"
)

const (
	generateSystem = "You are a master children's story writer specializing in phonics-integrated narratives. " +
		"You create engaging stories that naturally incorporate specific phonics patterns while maintaining " +
		"high literary quality for specific grade levels."

	evaluateSystem = "You are an expert children's literacy specialist who evaluates stories for grade-level " +
		"appropriateness, phonics integration, and educational quality. You understand research-based " +
		"constraints from CCSS and Lexile frameworks."

	reviseSystem = "You are a literacy education specialist who revises sentences to meet specific grade-level " +
		"research requirements while maintaining story quality and natural phonics integration."

	jsonOnly = "CRITICAL: Return ONLY valid JSON. No explanatory text, no markdown, no prefixes."
)

func wordRange(c grade.Constraints) string {
	return fmt.Sprintf("%d-%d", c.MinWords, c.MaxWords)
}

func generateMessages(in model.StoryInput, strict bool) []llm.Message {
	c := grade.For(in.GradeLevel)
	display := in.GradeLevel.Display()
	words := phonics.WordBankFor(in.PhonicSkill, in.GradeLevel)

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE an engaging %d-sentence story for %s that masterfully integrates %q phonics.\n\n", in.Length, display, in.PhonicSkill)

	b.WriteString("STORY PARAMETERS:\n")
	fmt.Fprintf(&b, "• Genre: %s\n• Theme: %s\n• Grade: %s (%s)\n", in.Genre, in.Theme, display, c.LexileRange)
	fmt.Fprintf(&b, "• Phonics focus: %q\n• Total sentences: EXACTLY %d\n\n", in.PhonicSkill, in.Length)

	b.WriteString("PHONICS INTEGRATION STRATEGY:\n")
	b.WriteString("• Use 3-4 words with target pattern naturally throughout story\n")
	if strict {
		b.WriteString("• At least 3 words MUST carry the target pattern\n")
	}
	fmt.Fprintf(&b, "• Available phonics words: %s\n", strings.Join(words, ", "))
	b.WriteString("• Create additional appropriate words if needed\n")
	b.WriteString("• Make phonics words central to plot/character actions\n\n")

	fmt.Fprintf(&b, "%s CONSTRAINTS:\n", strings.ToUpper(display))
	fmt.Fprintf(&b, "• %s words per sentence\n", wordRange(c))
	fmt.Fprintf(&b, "• Maximum %d syllables per word\n", c.MaxSyllables)
	fmt.Fprintf(&b, "• Sentence structures: %s\n", strings.Join(c.AllowedStructures, ", "))
	fmt.Fprintf(&b, "• AVOID: %s\n", strings.Join(c.ForbiddenStructures, ", "))
	fmt.Fprintf(&b, "• Vocabulary level: %s\n", c.VocabularyTier)
	fmt.Fprintf(&b, "• Lexile target: %s\n\n", c.LexileRange)

	b.WriteString("QUALITY REQUIREMENTS:\n")
	b.WriteString("• Clear story arc: setup → conflict/adventure → resolution\n")
	b.WriteString("• Rich, specific details that create vivid mental pictures\n")
	b.WriteString("• Educational value beyond phonics (social/emotional learning)\n")
	b.WriteString("• Each sentence advances plot meaningfully\n\n")

	b.WriteString(jsonOnly + "\nReturn EXACTLY this JSON structure:\n")
	fmt.Fprintf(&b, `{
  "title": "Engaging, Action-Oriented Title",
  "paragraphs": [
    {
      "sentences": [
        {
          "sentence": "Grade-appropriate sentence with natural phonics integration",
          "phonicsWords": ["words", "with", "the", "pattern"],
          "wordCount": 0,
          "designNotes": "Brief explanation of educational value"
        }
      ]
    }
  ],
  "phonicsIntegration": {
    "targetPattern": %q,
    "totalPhonicsWords": 0,
    "integrationStrategy": "how phonics supports the story"
  },
  "educationalFocus": "primary learning objectives beyond phonics"
}
`, in.PhonicSkill)
	fmt.Fprintf(&b, "\nCRITICAL: Count words carefully. Each sentence must be %s words.", wordRange(c))

	return []llm.Message{llm.System(generateSystem), llm.User(b.String())}
}

type taggedSentence struct {
	ParagraphIndex int      `json:"paragraphIndex"`
	SentenceIndex  int      `json:"sentenceIndex"`
	Sentence       string   `json:"sentence"`
	PhonicsWords   []string `json:"phonicsWords,omitempty"`
	WordCount      int      `json:"wordCount"`
}

type taggedParagraph struct {
	Sentences []taggedSentence `json:"sentences"`
}

type taggedStory struct {
	Title      string            `json:"title"`
	Paragraphs []taggedParagraph `json:"paragraphs"`
}

// tagStory renders story with each sentence carrying its indices so the
// evaluator can point revisions at exact positions.
func tagStory(story *model.Story) string {
	out := taggedStory{Title: story.Title, Paragraphs: make([]taggedParagraph, len(story.Paragraphs))}
	for pi, p := range story.Paragraphs {
		ts := make([]taggedSentence, len(p.Sentences))
		for si, s := range p.Sentences {
			ts[si] = taggedSentence{
				ParagraphIndex: pi,
				SentenceIndex:  si,
				Sentence:       s.Text,
				PhonicsWords:   s.PhonicsWords,
				WordCount:      s.WordCount,
			}
		}
		out.Paragraphs[pi] = taggedParagraph{Sentences: ts}
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	return string(b)
}

func evaluateMessages(story *model.Story, in model.StoryInput, strict bool) []llm.Message {
	c := grade.For(in.GradeLevel)
	display := in.GradeLevel.Display()
	forbidden := strings.Join(c.ForbiddenStructures, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "EVALUATE this %s story for COMPLETE EDUCATIONAL EFFECTIVENESS:\n\n", display)
	b.WriteString("STORY TO EVALUATE (each sentence is tagged with paragraphIndex and sentenceIndex):\n")
	b.WriteString(tagStory(story))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s REQUIREMENTS:\n", strings.ToUpper(display))
	fmt.Fprintf(&b, "• Sentence length: %s words\n", wordRange(c))
	fmt.Fprintf(&b, "• Syllable limit: %d per word\n", c.MaxSyllables)
	fmt.Fprintf(&b, "• Vocabulary tier: %s\n", c.VocabularyTier)
	fmt.Fprintf(&b, "• Sentence structures: %s\n", strings.Join(c.AllowedStructures, ", "))
	fmt.Fprintf(&b, "• FORBIDDEN structures: %s\n", forbidden)
	fmt.Fprintf(&b, "• Phonics skill: %q\n", in.PhonicSkill)
	b.WriteString("• Target phonics words needed: 3-4 minimum\n")
	fmt.Fprintf(&b, "• Lexile range: %s\n", c.LexileRange)
	if strict {
		b.WriteString("• STRICT PHONICS: fewer than 3 words with the target pattern is a critical issue and means meetsStandards is false\n")
	}

	b.WriteString("\nEVALUATION FRAMEWORK:\n")
	fmt.Fprintf(&b, "1. GRADE-LEVEL APPROPRIATENESS (0.0-1.0): word counts within %s, syllables ≤%d, no forbidden structures (%s)\n",
		wordRange(c), c.MaxSyllables, forbidden)
	fmt.Fprintf(&b, "2. PHONICS INTEGRATION (0.0-1.0): natural use of %q, enough repetition, never forced\n", in.PhonicSkill)
	b.WriteString("3. EDUCATIONAL STORY QUALITY (0.0-1.0): clear beginning/middle/end, age-fit characters, learning beyond phonics\n")
	b.WriteString("4. SPECIFIC IMPROVEMENTS: identify exact sentences, prioritise the most educationally critical problems\n\n")

	b.WriteString(jsonOnly + "\n")
	b.WriteString("In sentenceRevisions, copy paragraphIndex and sentenceIndex from the tagged sentence you are revising.\n")
	b.WriteString(`{
  "overallScore": 0.0,
  "gradeAppropriateScore": 0.0,
  "phonicsScore": 0.0,
  "storyQualityScore": 0.0,
  "meetsStandards": false,
  "criticalIssues": ["specific problems that impede learning"],
  "improvementPriorities": ["ordered by educational importance"],
  "educationalStrengths": ["what already works for learners"],
  "sentenceRevisions": [
    {
      "paragraphIndex": 0,
      "sentenceIndex": 0,
      "original": "exact sentence text",
      "issues": ["word count", "syllable complexity", "vocabulary tier", "syntax structure"],
      "priority": "critical/important/minor",
      "suggestedDirection": "specific improvement guidance"
    }
  ],
  "phonicsAnalysis": {
    "targetPattern": "extracted phonics pattern",
    "wordsFound": ["actual", "words", "with", "pattern"],
    "wordCount": 0,
    "integration": "natural/forced/insufficient",
    "educationalEffectiveness": "assessment of learning support"
  },
  "gradeLevelAnalysis": {
    "sentenceComplexityIssues": ["specific problems"],
    "vocabularyAppropriatenessIssues": ["specific problems"],
    "syntaxDevelopmentalIssues": ["specific problems"]
  },
  "educationalRecommendations": "key improvements for learning effectiveness"
}
`)
	b.WriteString("\nBE RIGOROUS: Only high scores (0.85+) for truly exceptional stories that match the grade-level requirements.")

	return []llm.Message{llm.System(evaluateSystem), llm.User(b.String())}
}

// storyContext is the one-line summary handed to each revision call.
func storyContext(story *model.Story) string {
	return fmt.Sprintf("Story: %q - Context: %s", story.Title, strings.Join(story.Texts(), " "))
}

func reviseMessages(original string, rev model.SentenceRevision, in model.StoryInput, context string) []llm.Message {
	c := grade.For(in.GradeLevel)
	display := in.GradeLevel.Display()
	words := phonics.WordBankFor(in.PhonicSkill, in.GradeLevel)

	var b strings.Builder
	fmt.Fprintf(&b, "REVISE this sentence to meet %s educational standards:\n\n", display)
	fmt.Fprintf(&b, "ORIGINAL: %q\n", original)
	fmt.Fprintf(&b, "IDENTIFIED ISSUES: %s\n", strings.Join(rev.Issues, ", "))
	if rev.SuggestedDirection != "" {
		fmt.Fprintf(&b, "SUGGESTED DIRECTION: %s\n", rev.SuggestedDirection)
	}
	fmt.Fprintf(&b, "STORY CONTEXT: %s\n\n", context)

	fmt.Fprintf(&b, "REVISION REQUIREMENTS FOR %s:\n", strings.ToUpper(display))
	b.WriteString("• Fix all identified issues while preserving meaning\n")
	fmt.Fprintf(&b, "• Word count: EXACTLY %s words\n", wordRange(c))
	fmt.Fprintf(&b, "• Syllable limit: Maximum %d per word\n", c.MaxSyllables)
	fmt.Fprintf(&b, "• Phonics: Include %q pattern naturally if missing\n", in.PhonicSkill)
	fmt.Fprintf(&b, "• Vocabulary: Use only %s\n", c.VocabularyTier)
	fmt.Fprintf(&b, "• Sentence structure: %s\n", strings.Join(c.AllowedStructures, "/"))
	fmt.Fprintf(&b, "• AVOID: %s\n\n", strings.Join(c.ForbiddenStructures, ", "))
	fmt.Fprintf(&b, "AVAILABLE PHONICS WORDS: %s\n\n", strings.Join(words, ", "))

	b.WriteString(jsonOnly + "\n")
	fmt.Fprintf(&b, `{
  "revisedSentence": "Improved sentence meeting ALL grade-level requirements",
  "wordCount": 0,
  "changesExplained": "What was changed and educational rationale",
  "educationalValue": "How this supports %s learning objectives",
  "phonicsIntegration": "How the phonics pattern was incorporated or maintained",
  "issuesResolved": ["list of original issues fixed"]
}
`, display)
	fmt.Fprintf(&b, "\nCRITICAL: The revised sentence must be %s words and use only vocabulary/structures appropriate for %s.", wordRange(c), display)

	return []llm.Message{llm.System(reviseSystem), llm.User(b.String())}
}
