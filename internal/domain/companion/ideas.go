package companion

import (
	"fmt"
	"strings"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
)

func ideaMessages(g model.GradeLevel) []llm.Message {
	display := g.Display()
	c := grade.For(g)

	system := "You are a wildly creative educational content specialist who generates completely original " +
		"story concepts while respecting research-based grade-level constraints from CCSS and Lexile " +
		"frameworks. You never repeat ideas and always create surprising, delightful concepts that are " +
		"developmentally appropriate."

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a completely ORIGINAL and CREATIVE story concept for %s students that follows educational research requirements.\n\n", display)
	b.WriteString("CREATIVE FREEDOM:\n")
	b.WriteString("• Create a theme that kids at this grade level find fascinating\n")
	b.WriteString("• Use a common genre that would fascinate young readers\n")
	b.WriteString("• Choose a grade-appropriate phonics skill that fits naturally into the concept\n")
	b.WriteString("• Set a story length that serves the idea and the grade level\n\n")

	fmt.Fprintf(&b, "EDUCATIONAL RESEARCH REQUIREMENTS for %s:\n", display)
	fmt.Fprintf(&b, "• Sentence complexity: %d-%d words per sentence\n", c.MinWords, c.MaxWords)
	fmt.Fprintf(&b, "• Syllable limit: Maximum %d syllables per word\n", c.MaxSyllables)
	fmt.Fprintf(&b, "• Vocabulary tier: %s\n", c.VocabularyTier)
	fmt.Fprintf(&b, "• Sentence structures: Use %s\n", strings.Join(c.AllowedStructures, ", "))
	fmt.Fprintf(&b, "• AVOID: %s\n", strings.Join(c.ForbiddenStructures, ", "))
	fmt.Fprintf(&b, "• Lexile range: %s\n", c.LexileRange)
	fmt.Fprintf(&b, "• Developmental focus: %s\n\n", grade.KeyFocus(g))

	b.WriteString("CREATIVE INSPIRATION (create something NEW):\n")
	b.WriteString("• What if ordinary objects had secret magical purposes?\n")
	b.WriteString("• What adventures could happen in places kids know well?\n")
	b.WriteString("• What if animals had unusual jobs or hobbies?\n")
	b.WriteString("• What mysteries could kids solve that adults miss?\n\n")

	b.WriteString("STORY LENGTH: pick the perfect length (4-15 sentences) for the concept and ")
	fmt.Fprintf(&b, "%s attention span.\n\n", display)

	b.WriteString(`Return ONLY valid JSON in exactly this format:
{
  "theme": "A grade-appropriate theme that captivates young readers",
  "genre": "A genre that matches the theme",
  "phonicSkill": "A specific phonics skill that fits the story concept",
  "length": 8
}
`)
	fmt.Fprintf(&b, "Make sure the phonics skill is appropriate for %s.", display)

	return []llm.Message{llm.System(system), llm.User(b.String())}
}
