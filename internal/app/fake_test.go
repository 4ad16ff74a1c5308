package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/model"
)

// storyChat answers every prompt family the service sends. When gate is
// set, story generation waits for it or for cancellation.
type storyChat struct {
	mu       sync.Mutex
	calls    map[string]int
	gate     chan struct{}
	started  chan struct{}
	storyErr error
	eval     model.Evaluation
}

func newStoryChat() *storyChat {
	return &storyChat{
		calls:   map[string]int{},
		started: make(chan struct{}, 16),
		eval:    model.Evaluation{OverallScore: 0.8, MeetsStandards: true, PhonicsScore: 0.8, GradeAppropriateScore: 0.8, StoryQualityScore: 0.8},
	}
}

func fourSentences() model.Story {
	return model.Story{
		Title: "The Shell Shop",
		Paragraphs: []model.Paragraph{
			{Sentences: []model.Sentence{{Text: "Shay has a shell."}, {Text: "She shows it to Sam."}}},
			{Sentences: []model.Sentence{{Text: "They shop for fish."}, {Text: "The friends share a dish."}}},
		},
	}
}

func kind(msgs []llm.Message) string {
	system, user := msgs[0].Content, msgs[len(msgs)-1].Content
	switch {
	case strings.Contains(system, "story writer"):
		return "generate"
	case strings.Contains(system, "evaluates stories"):
		return "evaluate"
	case strings.Contains(system, "revises sentences"):
		return "revise"
	case strings.Contains(system, "prompt engineer"):
		return "image"
	case strings.Contains(system, "content specialist"):
		return "idea"
	case strings.Contains(user, "comprehension questions"):
		return "questions"
	}
	return "prompts"
}

func (c *storyChat) count(k string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[k]
}

func (c *storyChat) ChatJSON(ctx context.Context, msgs []llm.Message, _ ...llm.CallOption) (json.RawMessage, error) {
	k := kind(msgs)
	c.mu.Lock()
	c.calls[k]++
	gate, storyErr, eval := c.gate, c.storyErr, c.eval
	c.mu.Unlock()

	if k == "generate" {
		c.started <- struct{}{}
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", llm.ErrCancelled, ctx.Err())
			}
		}
		if storyErr != nil {
			return nil, storyErr
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", llm.ErrCancelled, err)
	}

	switch k {
	case "generate":
		return json.Marshal(fourSentences())
	case "evaluate":
		return json.Marshal(eval)
	case "revise":
		return json.RawMessage(`{"revisedSentence":"Shay shines her shell."}`), nil
	case "image":
		return json.RawMessage(`{"prompt":"A girl holding a pink shell"}`), nil
	case "idea":
		return json.RawMessage(`{"theme":"ocean","genre":"adventure","phonicSkill":"sh","length":6}`), nil
	case "questions":
		return json.RawMessage(`{"questions":[{"text":"What does Shay have?","type":"Recall"}]}`), nil
	}
	return json.RawMessage(`{"prompts":["Think about something special you found."]}`), nil
}

type stubImages struct{}

func (stubImages) Generate(context.Context, string) (llm.Image, error) {
	return llm.Image{URL: "https://img.example/shell.png", Seed: 42}, nil
}

func (stubImages) Download(context.Context, string) ([]byte, string, error) {
	return []byte{0x89, 'P', 'N', 'G'}, "image/png", nil
}
