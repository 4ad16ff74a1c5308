package grade

import "github.com/okian/storyloom/internal/domain/model"

// table holds the research-derived limits per grade.
var table = map[model.GradeLevel]Constraints{
	model.GradeK: {
		MinWords:            3,
		MaxWords:            6,
		MaxSyllables:        2,
		VocabularyTier:      "Tier 1 only (everyday, high-frequency)",
		SentenceStructure:   "Simple SVO only - no subordination or compound sentences",
		AllowedStructures:   []string{"SVO", "SV"},
		ForbiddenStructures: []string{"compound", "complex", "subordinate clauses"},
		LexileRange:         "BR-200L",
		PreferredWords:      []string{"sight words", "CVC patterns", "basic nouns and verbs"},
		AvoidWords:          []string{"multisyllabic", "abstract concepts", "idiomatic expressions"},
		Examples: []string{
			"I see a dog.",
			"The cat is big.",
			"We go up.",
			"The ball is red.",
		},
	},
	model.Grade1: {
		MinWords:            4,
		MaxWords:            8,
		MaxSyllables:        2,
		VocabularyTier:      "Tier 1 + early Tier 2 (high utility)",
		SentenceStructure:   `Simple sentences, basic compound with "and"`,
		AllowedStructures:   []string{"SVO", "SVOC", "simple compound with and"},
		ForbiddenStructures: []string{"subordinate clauses", "complex sentences", "multiple conjunctions"},
		LexileRange:         "200L-400L",
		PreferredWords:      []string{"high-frequency words", "CVC/CVCC patterns", "simple blends", "inflectional endings"},
		AvoidWords:          []string{"multisyllabic beyond 2 syllables", "idioms", "complex prefixes"},
		Examples: []string{
			"The dog runs fast.",
			"I play with Sam.",
			"We read and play games.",
			"My mom is nice.",
		},
	},
	model.Grade2: {
		MinWords:            5,
		MaxWords:            10,
		MaxSyllables:        3,
		VocabularyTier:      "Tier 1 + Tier 2 (academic utility)",
		SentenceStructure:   "Simple and compound sentences, introductory phrases",
		AllowedStructures:   []string{"SVO", "SVOC", "compound with and/but", "prepositional phrase starters"},
		ForbiddenStructures: []string{"subordinate clauses", "relative clauses", "multiple dependent clauses"},
		LexileRange:         "400L-650L",
		PreferredWords:      []string{"high-frequency", "basic compound words", "affixed words", "basic academic vocabulary"},
		AvoidWords:          []string{"idioms", "rare words", "complex Latinate forms", "highly technical terms"},
		Examples: []string{
			"My friend helps me clean up.",
			"We went to the park after lunch.",
			"The happy dog played outside.",
			"After school, we play games.",
		},
	},
	model.Grade3: {
		MinWords:            6,
		MaxWords:            12,
		MaxSyllables:        3,
		VocabularyTier:      "Tier 2 focus + contextual Tier 3",
		SentenceStructure:   "Simple, compound, and emerging complex sentences",
		AllowedStructures:   []string{"SVO", "compound", "basic subordinate with because/when/after"},
		ForbiddenStructures: []string{"multiple subordinate clauses", "embedded clauses", "passive voice"},
		LexileRange:         "650L-820L",
		PreferredWords:      []string{"Tier 2 academic words", "affixed words", "irregular plurals", "basic content words"},
		AvoidWords:          []string{"obscure affixes", "dense idiomatic expressions", "highly technical jargon"},
		Examples: []string{
			"After breakfast, the family walked to the market.",
			"She was unhappy because her book was lost.",
			"The students observed the experiment carefully.",
			"When it rains, we play inside the house.",
		},
	},
	model.Grade4: {
		MinWords:            7,
		MaxWords:            15,
		MaxSyllables:        4,
		VocabularyTier:      "Tier 2 + contextual Tier 3 + morphological analysis",
		SentenceStructure:   "Compound and complex sentences with subordinate clauses",
		AllowedStructures:   []string{"compound", "complex", "subordinate clauses", "relative clauses emerging"},
		ForbiddenStructures: []string{"compound-complex", "multiple embedded clauses"},
		LexileRange:         "820L-980L",
		PreferredWords:      []string{"Tier 2 academic", "beginning Tier 3", "multisyllabic words", "Greek/Latin roots"},
		AvoidWords:          []string{"highly technical beyond context", "archaic terms", "dense jargon"},
		Examples: []string{
			"Although the weather was cold, we still played soccer after school.",
			"The scientist measured the water in three different containers.",
			"Because she studied hard, Maria received excellent grades on her test.",
			"The mysterious package that arrived yesterday contained a beautiful gift.",
		},
	},
	model.Grade5: {
		MinWords:            8,
		MaxWords:            18,
		MaxSyllables:        4,
		VocabularyTier:      "Tier 2 + domain-specific Tier 3 + morphological complexity",
		SentenceStructure:   "Compound/complex with dependent and independent clauses",
		AllowedStructures:   []string{"compound", "complex", "relative clauses", "participial phrases"},
		ForbiddenStructures: []string{"overly dense compound-complex", "multiple embeddings"},
		LexileRange:         "980L-1120L",
		PreferredWords:      []string{"Tier 2 academic", "content-specific vocabulary", "abstract concepts", "Latin/Greek bases"},
		AvoidWords:          []string{"dense technical terminology", "archaisms", "advanced idioms without context"},
		Examples: []string{
			"Because the river flooded, the team canceled their trip and planned a new one for next week.",
			"Many inventions, such as the telephone, have changed the world in surprising ways.",
			"Despite the challenging circumstances, the expedition team successfully reached the summit.",
			"The archaeologist carefully examined the ancient artifacts before recording her observations.",
		},
	},
	model.Grade6: {
		MinWords:            9,
		MaxWords:            20,
		MaxSyllables:        5,
		VocabularyTier:      "Tier 2-3 + figurative + morphologically complex",
		SentenceStructure:   "Complex and compound-complex with multiple subordinate clauses",
		AllowedStructures:   []string{"compound-complex", "multiple subordinate clauses", "embedded phrases", "varied starters"},
		ForbiddenStructures: []string{"extremely dense academic prose", "overly convoluted syntax"},
		LexileRange:         "1120L-1185L",
		PreferredWords:      []string{"Tier 2-3 academic", "domain-specific", "figurative language", "sophisticated vocabulary"},
		AvoidWords:          []string{"archaic without context", "densely technical outside domain", "college-level abstractions"},
		Examples: []string{
			"After completing the science project, the students presented their findings to the class, clearly explaining each step.",
			"When the river began to rise, the villagers built levees to prevent flooding in their community.",
			"Despite her fear of heights, Maya climbed the tall mountain and admired the spectacular view below.",
			"The protagonist's internal conflict, which had been building throughout the novel, finally reached its climax.",
		},
	},
}

var keyFocus = map[model.GradeLevel]string{
	model.GradeK: "Basic phonics, sight words, simple sentence structure",
	model.Grade1: "Phonics patterns, high-frequency words, basic fluency",
	model.Grade2: "Compound words, beginning academic vocabulary, sentence variety",
	model.Grade3: "Academic vocabulary, complex sentences, reading comprehension",
	model.Grade4: "Multisyllabic words, advanced sentence structures, content reading",
	model.Grade5: "Abstract concepts, complex text structures, critical thinking",
	model.Grade6: "Sophisticated vocabulary, varied syntax, analytical reading",
}

var subordinators = []string{
	"because", "when", "if", "since", "while", "although",
	"though", "after", "before", "unless", "until", "wherever",
}
