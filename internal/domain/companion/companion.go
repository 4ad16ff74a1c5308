// Package companion produces the material that goes with a story:
// comprehension questions, pre-reading prompts, illustrations and random
// story ideas.
package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/render"
	"github.com/okian/storyloom/pkg/logger"
)

// Call settings.
const (
	PromptsMaxTokens  = 612
	IdeaTemperature   = 0.9
	FallbackImageText = "A charming illustration of a fox and a bear by a river"

	defaultIdeaLength = 8
	maxIdeaLength     = 40
)

// Question is one comprehension question.
type Question struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Idea is a generated story request with its position in a batch.
type Idea struct {
	model.StoryInput
	Number int `json:"optionNumber"`
}

// Picture is a generated and downloaded illustration.
type Picture struct {
	Prompt      string
	SourceURL   string
	Seed        int64
	NSFW        bool
	Data        []byte
	ContentType string
}

// Images renders and fetches pictures.
type Images interface {
	Generate(ctx context.Context, prompt string) (llm.Image, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Generator produces companion material through the chat and image clients.
type Generator struct {
	chat   llm.Chatter
	images Images
	log    logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithImages enables Illustrate.
func WithImages(images Images) Option {
	return func(g *Generator) { g.images = images }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New builds a Generator.
func New(chat llm.Chatter, opts ...Option) *Generator {
	g := &Generator{chat: chat, log: logger.Named("companion")}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func jsonOnlySystem() llm.Message {
	return llm.System("You are a JSON-only assistant. Respond with ONLY valid JSON.")
}

func title(story *model.Story) string {
	if story == nil || strings.TrimSpace(story.Title) == "" {
		return "Untitled Story"
	}
	return story.Title
}

func metadata(b *strings.Builder, story *model.Story, in model.StoryInput) {
	fmt.Fprintf(b, "- Title: %s\n", title(story))
	fmt.Fprintf(b, "- Theme: %s\n", in.Theme)
	fmt.Fprintf(b, "- Grade Level: %s\n", in.GradeLevel.Display())
	fmt.Fprintf(b, "- Reading Skill: %s\n", in.PhonicSkill)
	fmt.Fprintf(b, "- Genre: %s\n", in.Genre)
}

// Questions asks for count comprehension questions about story. types
// optionally steers the kinds of question.
func (g *Generator) Questions(ctx context.Context, story *model.Story, in model.StoryInput, count int, types []string) ([]Question, error) {
	if count <= 0 {
		return []Question{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is the story:\n\n%s\n\n", render.PlainText(story))
	fmt.Fprintf(&b, "Generate exactly %d comprehension questions for this story.\n", count)
	b.WriteString("If helpful, focus on these question types:\n")
	if len(types) == 0 {
		b.WriteString("- No specific types requested\n")
	}
	for _, t := range types {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("\nSTORY METADATA:\n")
	metadata(&b, story, in)
	fmt.Fprintf(&b, "- Story Length: %d sentences\n\n", in.Length)
	b.WriteString(`RETURN ONLY valid JSON in this exact format:

{
  "questions": [
    { "text": "Question 1?", "type": "Open-ended" }
  ]
}

No extra text, markdown, or commentary. Just the JSON object.`)

	out, err := llm.Decode[struct {
		Questions []Question `json:"questions"`
	}](ctx, g.chat, []llm.Message{jsonOnlySystem(), llm.User(b.String())})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	if out.Questions == nil {
		return []Question{}, nil
	}
	return out.Questions, nil
}

// Prompts asks for count pre-reading prompts that connect to the story's
// theme without revealing its plot.
func (g *Generator) Prompts(ctx context.Context, story *model.Story, in model.StoryInput, count int) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	s := strategyFor(in.GradeLevel)
	display := in.GradeLevel.Display()

	var b strings.Builder
	fmt.Fprintf(&b, "You are creating PRE-READING thinking prompts for %s students. ", display)
	b.WriteString("These prompts are used BEFORE students read the story to activate prior knowledge.\n\n")
	b.WriteString("STORY METADATA (DO NOT reveal plot details in prompts):\n")
	metadata(&b, story, in)
	fmt.Fprintf(&b, "\n%s SPECIFIC REQUIREMENTS:\n", strings.ToUpper(display))
	fmt.Fprintf(&b, "- Complexity Level: %s\n", s.Complexity)
	fmt.Fprintf(&b, "- Language Style: %s\n", s.Language)
	fmt.Fprintf(&b, "- Maximum Words per Prompt: %d\n", s.MaxWords)
	fmt.Fprintf(&b, "- Theme Concepts to Connect: %s\n\n", strings.Join(conceptsFor(in.Theme), ", "))
	fmt.Fprintf(&b, "EXAMPLE PROMPTS FOR %s:\n", strings.ToUpper(display))
	for _, ex := range s.Examples {
		fmt.Fprintf(&b, "• %s\n", ex)
	}
	fmt.Fprintf(&b, "\nGenerate exactly %d PRE-READING thinking prompts that:\n", count)
	b.WriteString("1. Activate prior knowledge through personal experiences\n")
	fmt.Fprintf(&b, "2. Build connections to %s without revealing plot\n", in.Theme)
	fmt.Fprintf(&b, "3. Use %s\n", s.Language)
	fmt.Fprintf(&b, "4. Stay under %d words\n", s.MaxWords)
	b.WriteString("5. Start with activating language such as \"Think about...\", \"Have you ever...\" or \"Imagine...\"\n\n")
	b.WriteString("DO NOT mention plot points, character names or story events.\n\n")
	b.WriteString(`RETURN ONLY valid JSON in this exact format:

{
  "prompts": ["Prompt 1 text", "Prompt 2 text"]
}

No extra text, markdown, or commentary. Just the JSON object.`)

	system := llm.System(fmt.Sprintf("You are an expert %s literacy teacher creating pre-reading thinking prompts. "+
		"You understand developmental appropriateness and the difference between pre-reading activators and "+
		"post-reading questions. Respond with ONLY valid JSON.", display))

	out, err := llm.Decode[struct {
		Prompts []string `json:"prompts"`
	}](ctx, g.chat, []llm.Message{system, llm.User(b.String())}, llm.WithMaxTokens(PromptsMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("generate prompts: %w", err)
	}
	if out.Prompts == nil {
		return []string{}, nil
	}
	return out.Prompts, nil
}

var (
	headerMarker   = regexp.MustCompile(`<\|start_header_id\|>assistant<\|end_header_id\|>`)
	assistantLabel = regexp.MustCompile(`(?i)^assistant\s*`)
	edgeQuotes     = regexp.MustCompile(`^['"]|['"]$`)
)

// cleanPrompt strips chat-template residue and surrounding quotes.
func cleanPrompt(raw string) string {
	s := headerMarker.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	s = assistantLabel.ReplaceAllString(s, "")
	s = edgeQuotes.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

// ImagePrompt turns story text into one image-generation prompt. Failures
// other than cancellation fall back to a stock prompt.
func (g *Generator) ImagePrompt(ctx context.Context, text string) (string, error) {
	system := llm.System("You are an expert prompt engineer. Given a story, reply with ONE vivid, concise " +
		"image-generation prompt, focusing on scene, characters, mood, and style. " +
		`Respond with ONLY valid JSON: {"prompt": "..."}`)

	out, err := llm.Decode[struct {
		Prompt string `json:"prompt"`
	}](ctx, g.chat, []llm.Message{system, llm.User(text)})
	if err != nil {
		if llm.IsCancelled(err) {
			return "", err
		}
		g.log.Warn(ctx, "image prompt failed, using fallback", logger.Error(err))
		return FallbackImageText, nil
	}
	p := cleanPrompt(out.Prompt)
	if p == "" {
		return FallbackImageText, nil
	}
	return p, nil
}

// Illustrate writes an image prompt for story, renders it and downloads the
// picture.
func (g *Generator) Illustrate(ctx context.Context, story *model.Story) (*Picture, error) {
	if g.images == nil {
		return nil, ErrNoImages
	}
	prompt, err := g.ImagePrompt(ctx, render.PlainText(story))
	if err != nil {
		return nil, err
	}
	img, err := g.images.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	data, contentType, err := g.images.Download(ctx, img.URL)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return &Picture{
		Prompt:      prompt,
		SourceURL:   img.URL,
		Seed:        img.Seed,
		NSFW:        img.NSFW,
		Data:        data,
		ContentType: contentType,
	}, nil
}

type rawIdea struct {
	Theme       string          `json:"theme"`
	Genre       string          `json:"genre"`
	PhonicSkill string          `json:"phonicSkill"`
	Length      json.RawMessage `json:"length"`
}

// ideaLength reads a number or numeric string, clamped to the valid range.
func ideaLength(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return defaultIdeaLength
		}
		n = int(f)
	}
	return min(max(n, 1), maxIdeaLength)
}

// RandomInput asks for an original story request for grade. An empty grade
// picks one at random.
func (g *Generator) RandomInput(ctx context.Context, grade model.GradeLevel) (model.StoryInput, error) {
	if grade == "" {
		all := model.Grades()
		grade = all[rand.N(len(all))]
	}
	raw, err := llm.Decode[rawIdea](ctx, g.chat, ideaMessages(grade),
		llm.WithTemperature(IdeaTemperature),
		llm.WithMaxTokens(llm.DefaultMaxTokens))
	if err != nil {
		return model.StoryInput{}, fmt.Errorf("generate story idea: %w", err)
	}

	in := model.StoryInput{
		Theme:       strings.TrimSpace(raw.Theme),
		Genre:       strings.TrimSpace(raw.Genre),
		PhonicSkill: strings.TrimSpace(raw.PhonicSkill),
		Length:      ideaLength(raw.Length),
		GradeLevel:  grade,
	}
	if in.Theme == "" || in.Genre == "" || in.PhonicSkill == "" {
		return model.StoryInput{}, ErrIncompleteIdea
	}
	return in, nil
}

// RandomOptions generates count ideas one after another. Individual
// failures are skipped; it fails only when none succeed or on cancellation.
func (g *Generator) RandomOptions(ctx context.Context, grade model.GradeLevel, count int) ([]Idea, error) {
	var (
		out  []Idea
		errs []error
	)
	for i := range count {
		in, err := g.RandomInput(ctx, grade)
		if err != nil {
			if llm.IsCancelled(err) {
				return nil, err
			}
			g.log.Warn(ctx, "story idea failed", logger.Int("option", i+1), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		out = append(out, Idea{StoryInput: in, Number: i + 1})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoIdeas, errors.Join(errs...))
	}
	return out, nil
}
