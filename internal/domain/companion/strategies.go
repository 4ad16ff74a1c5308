package companion

import (
	"strings"

	"github.com/okian/storyloom/internal/domain/model"
)

// promptStrategy shapes pre-reading prompts for one grade.
type promptStrategy struct {
	Complexity string
	Language   string
	MaxWords   int
	Examples   []string
}

var promptStrategies = map[model.GradeLevel]promptStrategy{
	model.GradeK: {
		Complexity: "Very simple, concrete, visual",
		Language:   "Basic vocabulary, short sentences",
		MaxWords:   12,
		Examples: []string{
			"Think about your favorite toy. How do you take care of it?",
			"Have you ever lost something important? How did you feel?",
			"What makes you feel happy when you're sad?",
		},
	},
	model.Grade1: {
		Complexity: "Simple experiences, feelings-focused",
		Language:   "Familiar words, clear emotions",
		MaxWords:   15,
		Examples: []string{
			"Think about a time you helped someone. How did it make you feel?",
			"Have you ever been scared of something new? What happened?",
			"What do you do when you make a mistake?",
		},
	},
	model.Grade2: {
		Complexity: "Personal connections, simple problem-solving",
		Language:   "Everyday situations, basic choices",
		MaxWords:   18,
		Examples: []string{
			"Think about a time you had to choose between two things you wanted. How did you decide?",
			"Have you ever had to be brave when you were frightened? What did you do?",
			"What makes a good friend? Think about someone special to you.",
		},
	},
	model.Grade3: {
		Complexity: "Social situations, moral reasoning",
		Language:   "More complex emotions, relationships",
		MaxWords:   20,
		Examples: []string{
			"Think about a time when you had to stand up for what was right, even when it was hard.",
			"Have you ever had to choose between what you wanted and what was best for others?",
			"What would you do if you saw someone being treated unfairly?",
		},
	},
	model.Grade4: {
		Complexity: "Abstract concepts, community connections",
		Language:   "Academic vocabulary, complex scenarios",
		MaxWords:   22,
		Examples: []string{
			"Think about what it means to show courage. Can you think of different types of courage?",
			"Have you ever had to persevere through something really difficult? What kept you going?",
			"What responsibilities do we have to help others in our community?",
		},
	},
	model.Grade5: {
		Complexity: "Abstract thinking, moral dilemmas",
		Language:   "Sophisticated vocabulary, nuanced concepts",
		MaxWords:   25,
		Examples: []string{
			"Consider a time when you had to choose between personal loyalty and doing what's right.",
			"Think about how our actions can have consequences we don't expect. Can you think of an example?",
			"What does it mean to you to make a sacrifice for someone else?",
		},
	},
	model.Grade6: {
		Complexity: "Complex moral reasoning, identity exploration",
		Language:   "Advanced concepts, philosophical thinking",
		MaxWords:   28,
		Examples: []string{
			"Reflect on a time when your perspective on something important changed. What influenced that change?",
			"Consider the difference between conformity and belonging. When might each be important?",
			"Think about how we balance individual desires with collective responsibility.",
		},
	},
}

func strategyFor(g model.GradeLevel) promptStrategy {
	if s, ok := promptStrategies[g]; ok {
		return s
	}
	return promptStrategies[model.Grade2]
}

var themeConcepts = map[string][]string{
	"friendship":     {"loyalty", "trust", "making friends", "being a good friend", "peer pressure"},
	"courage":        {"fear", "bravery", "being scared", "trying new things", "speaking up"},
	"family":         {"relationships", "family rules", "family time", "feeling loved", "family changes"},
	"growth":         {"learning", "getting better", "trying hard", "not giving up", "learning from mistakes"},
	"community":      {"belonging", "helping others", "neighbors", "making a difference", "working together"},
	"adventure":      {"exploring", "taking risks", "curiosity", "discovering new things", "facing the unknown"},
	"responsibility": {"taking care of things", "keeping promises", "doing the right thing", "helping family"},
}

func conceptsFor(theme string) []string {
	if c, ok := themeConcepts[strings.ToLower(strings.TrimSpace(theme))]; ok {
		return c
	}
	return []string{"experiences", "feelings", "choices"}
}
