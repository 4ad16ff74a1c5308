package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/storyloom/internal/adapters/llm"
	"github.com/okian/storyloom/pkg/httpretry"
	"github.com/okian/storyloom/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type capture struct {
	mu      sync.Mutex
	hits    int
	path    string
	auth    string
	payload map[string]any
}

func (c *capture) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
	c.path = r.URL.Path
	c.auth = r.Header.Get("Authorization")
	b, _ := io.ReadAll(r.Body)
	c.payload = nil
	_ = json.Unmarshal(b, &c.payload)
}

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func fastTransport() *httpretry.Client {
	return httpretry.New(httpretry.WithBackoff(time.Millisecond, time.Millisecond, 0))
}

func gatewayClient(url string) *llm.Client {
	gw := llm.NewGateway(
		llm.WithBaseURL(url),
		llm.WithToken("secret"),
		llm.WithModel("test-model"),
		llm.WithTransport(fastTransport()),
	)
	return llm.NewClient(gw, nil)
}

func TestGatewayChatJSON(t *testing.T) {
	Convey("Given a gateway that answers with noisy JSON", t, func() {
		c := &capture{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.record(r)
			_, _ = io.WriteString(w, chatBody("assistant\n\nHere you go: {\"title\":\"Ship\"} done"))
		}))
		defer srv.Close()

		client := gatewayClient(srv.URL + "/")
		raw, err := client.ChatJSON(context.Background(),
			[]llm.Message{llm.System("sys"), llm.User("hi")},
			llm.WithTemperature(0.3), llm.WithMaxTokens(100))

		Convey("Then the JSON object is recovered", func() {
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"title":"Ship"}`)
		})

		Convey("Then the request follows the gateway contract", func() {
			So(c.path, ShouldEqual, "/llm")
			So(c.auth, ShouldEqual, "Bearer secret")
			So(c.payload["model"], ShouldEqual, "test-model")
			So(c.payload["temperature"], ShouldEqual, 0.3)
			So(c.payload["max_tokens"], ShouldEqual, float64(100))
			So(c.payload["stream"], ShouldEqual, false)
			So(c.payload["response_format"], ShouldResemble, map[string]any{"type": "json_object"})
			So(c.payload["messages"], ShouldHaveLength, 2)
		})

		Convey("Then the backend is named", func() {
			So(client.Name(), ShouldEqual, "gateway")
		})
	})
}

func TestGatewayDefaults(t *testing.T) {
	Convey("Given no call options", t, func() {
		c := &capture{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.record(r)
			_, _ = io.WriteString(w, chatBody(`{"ok":true}`))
		}))
		defer srv.Close()

		_, err := gatewayClient(srv.URL).ChatJSON(context.Background(), []llm.Message{llm.User("x")})

		So(err, ShouldBeNil)
		So(c.payload["temperature"], ShouldEqual, llm.DefaultTemperature)
		So(c.payload["max_tokens"], ShouldEqual, float64(llm.DefaultMaxTokens))
	})
}

func TestGatewayFailures(t *testing.T) {
	Convey("Given failing gateways", t, func() {
		ctx := context.Background()
		msgs := []llm.Message{llm.User("x")}

		Convey("When the status is a client error", func() {
			c := &capture{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.record(r)
				http.Error(w, "bad model", http.StatusBadRequest)
			}))
			defer srv.Close()

			_, err := gatewayClient(srv.URL).ChatJSON(ctx, msgs)

			Convey("Then it fails once with a request error", func() {
				var re *llm.RequestError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(re.Body, ShouldContainSubstring, "bad model")
				So(c.hits, ShouldEqual, 1)
			})
		})

		Convey("When the gateway keeps returning 503", func() {
			c := &capture{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.record(r)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			_, err := gatewayClient(srv.URL).ChatJSON(ctx, msgs, llm.WithMaxAttempts(2))

			Convey("Then the attempt budget is honoured", func() {
				var re *llm.RequestError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
				So(errors.Is(err, httpretry.ErrExhausted), ShouldBeTrue)
				So(c.hits, ShouldEqual, 2)
			})
		})

		Convey("When the content is empty", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"choices":[]}`)
			}))
			defer srv.Close()

			_, err := gatewayClient(srv.URL).ChatJSON(ctx, msgs)
			So(errors.Is(err, llm.ErrContentMissing), ShouldBeTrue)
		})

		Convey("When the content is not JSON", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, chatBody("sorry, no"))
			}))
			defer srv.Close()

			_, err := gatewayClient(srv.URL).ChatJSON(ctx, msgs)
			var me *llm.MalformedResponseError
			So(errors.As(err, &me), ShouldBeTrue)
			So(me.Content, ShouldEqual, "sorry, no")
		})

		Convey("When the context is already cancelled", func() {
			c := &capture{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.record(r)
			}))
			defer srv.Close()

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := gatewayClient(srv.URL).ChatJSON(cctx, msgs)

			Convey("Then nothing is sent and the error is a cancellation", func() {
				So(llm.IsCancelled(err), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(c.hits, ShouldEqual, 0)
			})
		})
	})
}

type storyShape struct {
	Title string `json:"title"`
}

type stubChatter struct {
	raw json.RawMessage
	err error
}

func (s stubChatter) ChatJSON(context.Context, []llm.Message, ...llm.CallOption) (json.RawMessage, error) {
	return s.raw, s.err
}

func TestDecode(t *testing.T) {
	Convey("Given a chatter", t, func() {
		ctx := context.Background()

		Convey("When the value fits the type", func() {
			out, err := llm.Decode[storyShape](ctx, stubChatter{raw: json.RawMessage(`{"title":"Fish"}`)}, nil)
			So(err, ShouldBeNil)
			So(out.Title, ShouldEqual, "Fish")
		})

		Convey("When the value does not fit", func() {
			_, err := llm.Decode[storyShape](ctx, stubChatter{raw: json.RawMessage(`[1,2]`)}, nil)
			var me *llm.MalformedResponseError
			So(errors.As(err, &me), ShouldBeTrue)
		})

		Convey("When the call fails", func() {
			boom := errors.New("boom")
			_, err := llm.Decode[storyShape](ctx, stubChatter{err: boom}, nil)
			So(err, ShouldEqual, boom)
		})
	})
}

type recordingCompleter struct {
	calls []string
}

func (r *recordingCompleter) Name() string { return "inner" }

func (r *recordingCompleter) Complete(context.Context, llm.Request) (string, error) {
	r.calls = append(r.calls, "inner")
	return "{}", nil
}

func TestWrap(t *testing.T) {
	Convey("Given two middlewares", t, func() {
		inner := &recordingCompleter{}
		mark := func(name string) llm.Middleware {
			return func(next llm.Completer) llm.Completer {
				return tagged{name: name, next: next, calls: &inner.calls}
			}
		}
		c := llm.Wrap(inner, mark("A"), mark("B"))
		_, err := c.Complete(context.Background(), llm.Request{})

		Convey("Then the first wraps the second", func() {
			So(err, ShouldBeNil)
			So(inner.calls, ShouldResemble, []string{"A", "B", "inner"})
			So(c.Name(), ShouldEqual, "inner")
		})
	})
}

type tagged struct {
	name  string
	next  llm.Completer
	calls *[]string
}

func (t tagged) Name() string { return t.next.Name() }

func (t tagged) Complete(ctx context.Context, req llm.Request) (string, error) {
	*t.calls = append(*t.calls, t.name)
	return t.next.Complete(ctx, req)
}

func TestOpenAIBackend(t *testing.T) {
	Convey("Given an OpenAI-compatible server", t, func() {
		c := &capture{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.record(r)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"score\":0.9}"}}]}`)
		}))
		defer srv.Close()

		backend := llm.NewOpenAI(llm.WithBaseURL(srv.URL+"/v1/"), llm.WithToken("k"), llm.WithModel("m"))
		raw, err := llm.NewClient(backend, nil).ChatJSON(context.Background(),
			[]llm.Message{llm.System("s"), llm.User("u")}, llm.WithTemperature(0.4))

		Convey("Then the SDK call is decoded", func() {
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"score":0.9}`)
			So(c.path, ShouldEqual, "/v1/chat/completions")
			So(c.auth, ShouldEqual, "Bearer k")
			So(c.payload["response_format"], ShouldResemble, map[string]any{"type": "json_object"})
			So(backend.Name(), ShouldEqual, "openai")
		})
	})
}

func TestImageClient(t *testing.T) {
	Convey("Given a text-to-image endpoint", t, func() {
		c := &capture{}
		mux := http.NewServeMux()
		mux.HandleFunc("/text-to-image", func(w http.ResponseWriter, r *http.Request) {
			c.record(r)
			_, _ = io.WriteString(w, `{"images":[{"url":"/files/a.png","seed":42,"nsfw":false}]}`)
		})
		mux.HandleFunc("/files/a.png", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("PNGDATA"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		ic := llm.NewImageClient(llm.ImageConfig{}, llm.WithBaseURL(srv.URL), llm.WithTransport(fastTransport()))
		img, err := ic.Generate(context.Background(), "a fox by a river")

		Convey("Then the first image is returned with an absolute url", func() {
			So(err, ShouldBeNil)
			So(img.Seed, ShouldEqual, 42)
			So(img.URL, ShouldEqual, srv.URL+"/files/a.png")
		})

		Convey("Then the defaults are sent", func() {
			So(c.payload["model_id"], ShouldEqual, "black-forest-labs/FLUX.1-dev")
			So(c.payload["width"], ShouldEqual, float64(1024))
			So(c.payload["height"], ShouldEqual, float64(576))
			So(c.payload["num_inference_steps"], ShouldEqual, float64(10))
			So(c.payload["guidance_scale"], ShouldEqual, float64(4))
			So(c.payload["safety_check"], ShouldEqual, false)
		})

		Convey("Then the image can be downloaded", func() {
			b, ct, err := ic.Download(context.Background(), img.URL)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "PNGDATA")
			So(ct, ShouldEqual, "image/png")
		})
	})

	Convey("Given an endpoint with no images", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"images":[]}`)
		}))
		defer srv.Close()

		_, err := llm.NewImageClient(llm.ImageConfig{}, llm.WithBaseURL(srv.URL)).Generate(context.Background(), "p")
		So(errors.Is(err, llm.ErrImageMissing), ShouldBeTrue)
	})
}

type lastRequest struct {
	req llm.Request
}

func (l *lastRequest) Name() string { return "fake" }

func (l *lastRequest) Complete(_ context.Context, req llm.Request) (string, error) {
	l.req = req
	return `{"ok":true}`, nil
}

func TestClientDefaults(t *testing.T) {
	Convey("Given a client with default call options", t, func() {
		backend := &lastRequest{}
		client := llm.NewClient(backend, nil, llm.WithMaxAttempts(5), llm.WithTemperature(0.2))

		Convey("When a call sets its own temperature", func() {
			_, err := client.ChatJSON(context.Background(), []llm.Message{llm.User("u")}, llm.WithTemperature(0.9))

			Convey("Then the call wins and the defaults fill the rest", func() {
				So(err, ShouldBeNil)
				So(backend.req.MaxAttempts, ShouldEqual, 5)
				So(backend.req.Temperature, ShouldEqual, 0.9)
				So(backend.req.MaxTokens, ShouldEqual, llm.DefaultMaxTokens)
			})
		})
	})
}

// warnings keeps the messages logged at warn level.
type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) Info(context.Context, string, ...logger.Field)  {}
func (w *warnings) Error(context.Context, string, ...logger.Field) {}
func (w *warnings) Debug(context.Context, string, ...logger.Field) {}
func (w *warnings) Fatal(context.Context, string, ...logger.Field) {}
func (w *warnings) Named(string) logger.Logger                     { return w }

func (w *warnings) Warn(_ context.Context, msg string, _ ...logger.Field) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func (w *warnings) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.msgs...)
}

func TestBackendLogger(t *testing.T) {
	Convey("Given a gateway that is busy once", t, func() {
		var hits int
		var mu sync.Mutex
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits++
			n := hits
			mu.Unlock()
			if n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, chatBody(`{"ok":true}`))
		}))
		defer srv.Close()

		log := &warnings{}
		gw := llm.NewGateway(llm.WithBaseURL(srv.URL), llm.WithLogger(log))
		_, err := llm.NewClient(gw, nil).ChatJSON(context.Background(), []llm.Message{llm.User("u")})

		Convey("Then the retry is reported to the configured logger", func() {
			So(err, ShouldBeNil)
			So(log.all(), ShouldResemble, []string{"retrying provider call"})
		})
	})

	Convey("Given an OpenAI-compatible server that stops at the token budget", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"finish_reason":"length","message":{"role":"assistant","content":"{\"score\":0.9}"}}]}`)
		}))
		defer srv.Close()

		log := &warnings{}
		backend := llm.NewOpenAI(llm.WithBaseURL(srv.URL+"/v1/"), llm.WithToken("k"), llm.WithLogger(log))
		_, err := backend.Complete(context.Background(), llm.Request{Messages: []llm.Message{llm.User("u")}, MaxTokens: 10, MaxAttempts: 1})

		Convey("Then the truncation is reported", func() {
			So(err, ShouldBeNil)
			So(log.all(), ShouldResemble, []string{"completion cut at token budget"})
		})
	})
}
