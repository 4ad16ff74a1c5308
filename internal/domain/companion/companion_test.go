package companion_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// replyChat answers every call with the next scripted reply.
type replyChat struct {
	mu      sync.Mutex
	replies []reply
	calls   []llm.Request
}

type reply struct {
	body string
	err  error
}

func (c *replyChat) ChatJSON(_ context.Context, msgs []llm.Message, opts ...llm.CallOption) (json.RawMessage, error) {
	req := llm.Request{Messages: msgs}
	for _, opt := range opts {
		opt(&req)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.calls)
	c.calls = append(c.calls, req)
	r := c.replies[min(n, len(c.replies)-1)]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.body), nil
}

func (c *replyChat) prompt(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.calls[i].Messages
	return msgs[len(msgs)-1].Content
}

type fakeImages struct {
	prompt string
	genErr error
}

func (f *fakeImages) Generate(_ context.Context, prompt string) (llm.Image, error) {
	f.prompt = prompt
	if f.genErr != nil {
		return llm.Image{}, f.genErr
	}
	return llm.Image{URL: "https://img.example/1.png", Seed: 7}, nil
}

func (f *fakeImages) Download(_ context.Context, url string) ([]byte, string, error) {
	return []byte("png-bytes"), "image/png", nil
}

func story() *model.Story {
	return &model.Story{
		Title: "Ship Day",
		Paragraphs: []model.Paragraph{
			{Sentences: []model.Sentence{{Text: "Sam has a red ship."}, {Text: "The fish swam by."}}},
		},
	}
}

func input() model.StoryInput {
	return model.StoryInput{Theme: "friendship", Genre: "adventure", PhonicSkill: "sh", Length: 2, GradeLevel: model.Grade1}
}

func TestQuestionsAndPrompts(t *testing.T) {
	Convey("Given a companion generator", t, func() {
		ctx := context.Background()

		Convey("When questions are requested", func() {
			chat := &replyChat{replies: []reply{{body: `{"questions":[{"text":"Who has a ship?","type":"Recall"}]}`}}}
			g := companion.New(chat)
			qs, err := g.Questions(ctx, story(), input(), 1, []string{"Recall"})

			Convey("Then the story text and types are in the prompt", func() {
				So(err, ShouldBeNil)
				So(qs, ShouldResemble, []companion.Question{{Text: "Who has a ship?", Type: "Recall"}})
				p := chat.prompt(0)
				So(p, ShouldContainSubstring, "Sam has a red ship. The fish swam by.")
				So(p, ShouldContainSubstring, "Generate exactly 1 comprehension questions")
				So(p, ShouldContainSubstring, "- Recall")
				So(p, ShouldContainSubstring, "- Title: Ship Day")
			})
		})

		Convey("When zero questions are requested", func() {
			chat := &replyChat{replies: []reply{{body: `{}`}}}
			qs, err := companion.New(chat).Questions(ctx, story(), input(), 0, nil)

			Convey("Then no call is made", func() {
				So(err, ShouldBeNil)
				So(qs, ShouldBeEmpty)
				So(chat.calls, ShouldBeEmpty)
			})
		})

		Convey("When the question call fails", func() {
			chat := &replyChat{replies: []reply{{err: llm.ErrContentMissing}}}
			_, err := companion.New(chat).Questions(ctx, story(), input(), 3, nil)

			Convey("Then the error is wrapped", func() {
				So(errors.Is(err, llm.ErrContentMissing), ShouldBeTrue)
			})
		})

		Convey("When prompts are requested", func() {
			chat := &replyChat{replies: []reply{{body: `{"prompts":["Think about a friend."]}`}}}
			ps, err := companion.New(chat).Prompts(ctx, story(), input(), 1)

			Convey("Then the grade strategy and theme concepts shape the request", func() {
				So(err, ShouldBeNil)
				So(ps, ShouldResemble, []string{"Think about a friend."})
				p := chat.prompt(0)
				So(p, ShouldContainSubstring, "Maximum Words per Prompt: 15")
				So(p, ShouldContainSubstring, "loyalty, trust")
				So(chat.calls[0].MaxTokens, ShouldEqual, companion.PromptsMaxTokens)
			})
		})
	})
}

func TestIllustrate(t *testing.T) {
	Convey("Given a generator with images", t, func() {
		ctx := context.Background()
		images := &fakeImages{}

		Convey("When the prompt comes back with template residue", func() {
			chat := &replyChat{replies: []reply{{body: `{"prompt":"<|start_header_id|>assistant<|end_header_id|> \"A red ship at sea\""}`}}}
			pic, err := companion.New(chat, companion.WithImages(images)).Illustrate(ctx, story())

			Convey("Then it is cleaned before rendering", func() {
				So(err, ShouldBeNil)
				So(images.prompt, ShouldEqual, "A red ship at sea")
				So(pic.Prompt, ShouldEqual, "A red ship at sea")
				So(pic.Data, ShouldResemble, []byte("png-bytes"))
				So(pic.ContentType, ShouldEqual, "image/png")
				So(pic.Seed, ShouldEqual, 7)
			})
		})

		Convey("When the prompt call fails", func() {
			chat := &replyChat{replies: []reply{{err: &llm.RequestError{StatusCode: 502}}}}
			pic, err := companion.New(chat, companion.WithImages(images)).Illustrate(ctx, story())

			Convey("Then the stock prompt is used", func() {
				So(err, ShouldBeNil)
				So(pic.Prompt, ShouldEqual, companion.FallbackImageText)
			})
		})

		Convey("When the prompt call is cancelled", func() {
			chat := &replyChat{replies: []reply{{err: fmt.Errorf("%w: %w", llm.ErrCancelled, context.Canceled)}}}
			_, err := companion.New(chat, companion.WithImages(images)).Illustrate(ctx, story())

			Convey("Then cancellation is returned", func() {
				So(llm.IsCancelled(err), ShouldBeTrue)
				So(images.prompt, ShouldBeEmpty)
			})
		})

		Convey("When no image client is configured", func() {
			chat := &replyChat{replies: []reply{{body: `{}`}}}
			_, err := companion.New(chat).Illustrate(ctx, story())
			So(errors.Is(err, companion.ErrNoImages), ShouldBeTrue)
		})
	})
}

func TestRandomIdeas(t *testing.T) {
	Convey("Given a generator", t, func() {
		ctx := context.Background()

		Convey("When the model returns the length as a string", func() {
			chat := &replyChat{replies: []reply{{body: `{"theme":"space","genre":"mystery","phonicSkill":"ch","length":"12"}`}}}
			in, err := companion.New(chat).RandomInput(ctx, model.Grade3)

			Convey("Then it is parsed and the grade is kept", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, model.StoryInput{Theme: "space", Genre: "mystery", PhonicSkill: "ch", Length: 12, GradeLevel: model.Grade3})
				So(chat.calls[0].Temperature, ShouldEqual, companion.IdeaTemperature)
				So(chat.prompt(0), ShouldContainSubstring, "Grade 3")
			})
		})

		Convey("When no grade is given", func() {
			chat := &replyChat{replies: []reply{{body: `{"theme":"space","genre":"mystery","phonicSkill":"ch","length":99}`}}}
			in, err := companion.New(chat).RandomInput(ctx, "")

			Convey("Then a valid grade is picked and length is clamped", func() {
				So(err, ShouldBeNil)
				So(in.GradeLevel.Valid(), ShouldBeTrue)
				So(in.Length, ShouldEqual, 40)
			})
		})

		Convey("When some options fail", func() {
			chat := &replyChat{replies: []reply{
				{body: `{"theme":"space","genre":"mystery","phonicSkill":"ch","length":6}`},
				{err: &llm.MalformedResponseError{Err: errors.New("bad")}},
				{body: `{"theme":"","genre":"mystery","phonicSkill":"ch","length":6}`},
				{body: `{"theme":"farm","genre":"fable","phonicSkill":"sh","length":5}`},
			}}
			ideas, err := companion.New(chat).RandomOptions(ctx, model.Grade2, 4)

			Convey("Then the rest are kept with their positions", func() {
				So(err, ShouldBeNil)
				So(ideas, ShouldHaveLength, 2)
				So(ideas[0].Number, ShouldEqual, 1)
				So(ideas[1].Number, ShouldEqual, 4)
				So(ideas[1].Theme, ShouldEqual, "farm")
			})
		})

		Convey("When every option fails", func() {
			chat := &replyChat{replies: []reply{{err: llm.ErrContentMissing}}}
			_, err := companion.New(chat).RandomOptions(ctx, model.Grade2, 2)

			Convey("Then the batch fails", func() {
				So(errors.Is(err, companion.ErrNoIdeas), ShouldBeTrue)
				So(errors.Is(err, llm.ErrContentMissing), ShouldBeTrue)
			})
		})

		Convey("When an option is cancelled", func() {
			chat := &replyChat{replies: []reply{{err: fmt.Errorf("%w: %w", llm.ErrCancelled, context.Canceled)}}}
			_, err := companion.New(chat).RandomOptions(ctx, model.Grade2, 3)

			Convey("Then the batch stops at once", func() {
				So(llm.IsCancelled(err), ShouldBeTrue)
				So(chat.calls, ShouldHaveLength, 1)
			})
		})
	})
}
