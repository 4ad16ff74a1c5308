package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/okian/storyloom/internal/adapters/artifact"
	"github.com/okian/storyloom/internal/adapters/http/api"
	"github.com/okian/storyloom/internal/adapters/repository"
	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeDeps struct {
	mu        sync.Mutex
	jobs      map[string]*model.Job
	images    map[string]artifact.Object
	submitErr error
	lastKey   string
	lastReq   types.SubmitRequest
	live      chan types.StreamMessage
	validate  interface{ Struct(any) error }
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		jobs:     map[string]*model.Job{},
		images:   map[string]artifact.Object{},
		live:     make(chan types.StreamMessage, 8),
		validate: service.NewValidator(),
	}
}

func (f *fakeDeps) Validate(v any) error {
	if err := f.validate.Struct(v); err != nil {
		return &service.ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

func (f *fakeDeps) Submit(_ context.Context, req types.SubmitRequest, key string) (types.SubmitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return types.SubmitResponse{}, f.submitErr
	}
	f.lastKey, f.lastReq = key, req
	return types.SubmitResponse{ID: "job-1", Status: model.JobQueued}, nil
}

func (f *fakeDeps) Get(_ context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return job.Clone(), nil
}

func (f *fakeDeps) Cancel(ctx context.Context, id string) (*model.Job, error) {
	job, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, service.ErrFinished
	}
	job.Status = model.JobCancelled
	return job, nil
}

func (f *fakeDeps) Result(ctx context.Context, id string) (*model.Result, error) {
	job, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobSucceeded {
		return nil, service.ErrNotReady
	}
	return job.Result, nil
}

func (f *fakeDeps) Stream(ctx context.Context, id string) (*model.Job, <-chan types.StreamMessage, error) {
	job, err := f.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return job, f.live, nil
}

func (f *fakeDeps) Stats(context.Context) types.Stats {
	return types.Stats{Jobs: map[model.JobStatus]int{model.JobSucceeded: 1}, StoredJobs: 1, Workers: 2}
}

func (f *fakeDeps) Questions(context.Context, string, types.QuestionsRequest) ([]companion.Question, error) {
	return []companion.Question{{Text: "Who has a shell?", Type: "Recall"}}, nil
}

func (f *fakeDeps) Prompts(context.Context, string, types.PromptsRequest) ([]string, error) {
	return []string{"Think about the sea."}, nil
}

func (f *fakeDeps) Illustrate(ctx context.Context, id string) (model.Illustration, error) {
	if _, err := f.Result(ctx, id); err != nil {
		return model.Illustration{}, err
	}
	ill := model.Illustration{Key: id + "/pic.png", ContentType: "image/png", Size: 3}
	f.mu.Lock()
	f.images[ill.Key] = artifact.Object{Data: []byte("png"), ContentType: "image/png"}
	f.mu.Unlock()
	return ill, nil
}

func (f *fakeDeps) Illustration(_ context.Context, key string) (artifact.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.images[key]
	if !ok {
		return artifact.Object{}, artifact.ErrNotFound
	}
	return obj, nil
}

func (f *fakeDeps) RandomInputs(context.Context, types.RandomInputRequest) ([]companion.Idea, error) {
	return []companion.Idea{{StoryInput: model.StoryInput{Theme: "ocean", Genre: "fable", PhonicSkill: "sh", Length: 6, GradeLevel: model.Grade1}, Number: 1}}, nil
}

func succeededJob() *model.Job {
	eval := &model.Evaluation{OverallScore: 0.8, MeetsStandards: true}
	return &model.Job{
		ID:     "done",
		Status: model.JobSucceeded,
		Input:  model.StoryInput{Theme: "friendship", Genre: "adventure", PhonicSkill: "sh", Length: 2, GradeLevel: model.Grade2},
		Events: []model.TimedEvent{{Name: model.EventStoryGeneration, Pass: 1, OK: true}},
		Result: &model.Result{
			Story: &model.Story{
				Title:      "The Shell Shop",
				Paragraphs: []model.Paragraph{{Sentences: []model.Sentence{{Text: "Shay has a shell."}, {Text: "She shows it to Sam."}}}},
				Pipeline:   &model.PipelineMeta{FinalEvaluation: eval},
			},
			FinalReport: &model.FinalReport{OverallAssessment: model.AssessmentGood, OverallScore: 0.8, GradeLevel: model.Grade2},
		},
	}
}

func setup() (*fakeDeps, *http.ServeMux) {
	deps := newFakeDeps()
	deps.jobs["done"] = succeededJob()
	deps.jobs["busy"] = &model.Job{ID: "busy", Status: model.JobRunning}
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return deps, mux
}

func do(mux http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorOf(w *httptest.ResponseRecorder) types.ErrorResponse {
	var e types.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	return e
}

func TestSubmit(t *testing.T) {
	Convey("Given the story API", t, func() {
		deps, mux := setup()
		body := `{"input":{"theme":"friendship","genre":"adventure","phonicSkill":"sh digraph","length":4,"gradeLevel":"2"}}`

		Convey("When a story is submitted with an idempotency key", func() {
			w := do(mux, http.MethodPost, "/stories", body, api.IdempotencyHeader, "abc")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Header().Get("Location"), ShouldEqual, "/stories/job-1")
				var resp types.SubmitResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.ID, ShouldEqual, "job-1")
				So(deps.lastKey, ShouldEqual, "abc")
				So(deps.lastReq.Input.GradeLevel, ShouldEqual, model.Grade2)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/stories", "{")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorOf(w).Code, ShouldEqual, "bad_request")
		})

		Convey("When the service rejects the input", func() {
			deps.submitErr = &service.ValidationError{Problems: []string{"genre is required"}}
			w := do(mux, http.MethodPost, "/stories", body)

			Convey("Then the problems are listed", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorOf(w).Problems, ShouldResemble, []string{"genre is required"})
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrBusy
			w := do(mux, http.MethodPost, "/stories", body)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorOf(w).Code, ShouldEqual, "backpressure")
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodPut, "/stories", body)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestJobs(t *testing.T) {
	Convey("Given stored jobs", t, func() {
		_, mux := setup()

		Convey("When a finished job is fetched", func() {
			w := do(mux, http.MethodGet, "/stories/done", "")

			Convey("Then its renderings are linked", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var view map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
				links := view["links"].(map[string]any)
				So(links["markdown"], ShouldEqual, "/stories/done/story.md")
			})
		})

		Convey("When a missing job is fetched", func() {
			w := do(mux, http.MethodGet, "/stories/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorOf(w).Code, ShouldEqual, "not_found")
		})

		Convey("When jobs are cancelled", func() {
			So(do(mux, http.MethodDelete, "/stories/busy", "").Code, ShouldEqual, http.StatusAccepted)
			So(do(mux, http.MethodDelete, "/stories/done", "").Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When a finished story is rendered", func() {
			md := do(mux, http.MethodGet, "/stories/done/story.md", "")
			page := do(mux, http.MethodGet, "/stories/done/story.html", "")
			txt := do(mux, http.MethodGet, "/stories/done/story.txt", "")

			Convey("Then each format is served", func() {
				So(md.Header().Get("Content-Type"), ShouldStartWith, "text/markdown")
				So(md.Body.String(), ShouldStartWith, "# The Shell Shop")
				So(md.Body.String(), ShouldContainSubstring, "**GOOD**")
				So(page.Header().Get("Content-Type"), ShouldStartWith, "text/html")
				So(page.Body.String(), ShouldContainSubstring, "<title>The Shell Shop</title>")
				So(page.Body.String(), ShouldContainSubstring, "<h1>The Shell Shop</h1>")
				So(txt.Body.String(), ShouldEqual, "Shay has a shell. She shows it to Sam.")
			})
		})

		Convey("When an unfinished story is rendered", func() {
			w := do(mux, http.MethodGet, "/stories/busy/story.txt", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(errorOf(w).Code, ShouldEqual, "not_ready")
		})
	})
}

func TestCompanionRoutes(t *testing.T) {
	Convey("Given a finished story", t, func() {
		_, mux := setup()

		Convey("Then questions and prompts are served", func() {
			w := do(mux, http.MethodPost, "/stories/done/questions", `{"count":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Who has a shell?")

			w = do(mux, http.MethodPost, "/stories/done/prompts", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Think about the sea.")
		})

		Convey("When it is illustrated", func() {
			w := do(mux, http.MethodPost, "/stories/done/illustrations", "")

			Convey("Then the picture can be fetched by key", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/illustrations/done/pic.png")

				pic := do(mux, http.MethodGet, "/illustrations/done/pic.png", "")
				So(pic.Code, ShouldEqual, http.StatusOK)
				So(pic.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(pic.Body.String(), ShouldEqual, "png")
			})
		})

		Convey("When an unknown picture is fetched", func() {
			So(do(mux, http.MethodGet, "/illustrations/done/none.png", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When random inputs are requested", func() {
			w := do(mux, http.MethodPost, "/inputs/random", `{"gradeLevel":"1"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"optionNumber":1`)
		})
	})
}

func TestReferenceRoutes(t *testing.T) {
	Convey("Given the reference endpoints", t, func() {
		_, mux := setup()

		Convey("When a grade is described", func() {
			w := do(mux, http.MethodGet, "/grades/K", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Kindergarten")
			So(do(mux, http.MethodGet, "/grades/9", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When text is analysed for a phonics skill", func() {
			w := do(mux, http.MethodPost, "/phonics/analyze",
				`{"text":"Shay has a shell. She shops for fish.","phonicSkill":"sh digraph","gradeLevel":"1"}`)

			Convey("Then the analysis counts pattern words", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp types.PhonicsResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Analysis.SentenceCount, ShouldEqual, 2)
				So(resp.Analysis.TotalWords, ShouldBeGreaterThan, 0)
				So(resp.WordBank, ShouldNotBeEmpty)
			})
		})

		Convey("When the text is missing", func() {
			w := do(mux, http.MethodPost, "/phonics/analyze", `{"phonicSkill":"sh","gradeLevel":"1"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then health and stats respond", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"workers":2`)
		})
	})
}

func TestStream(t *testing.T) {
	deps, mux := setup()
	deps.jobs["busy"].Events = []model.TimedEvent{{Name: model.EventStoryGeneration, Pass: 1, OK: true}}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stories/busy/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	deps.live <- types.StreamMessage{Type: types.StreamEvent, Seq: 1, Event: &model.TimedEvent{Name: model.EventStoryGeneration}}
	deps.live <- types.StreamMessage{Type: types.StreamEvent, Seq: 2, Event: &model.TimedEvent{Name: model.EventStoryEvaluation}}
	deps.live <- types.StreamMessage{Type: types.StreamStatus, Status: model.JobSucceeded}
	close(deps.live)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got []types.StreamMessage
	for {
		var msg types.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		got = append(got, msg)
	}

	require.Len(t, got, 4)
	require.Equal(t, 1, got[0].Seq)
	require.Equal(t, types.StreamStatus, got[1].Type)
	require.Equal(t, model.JobRunning, got[1].Status)
	require.Equal(t, 2, got[2].Seq)
	require.Equal(t, model.EventStoryEvaluation, got[2].Event.Name)
	require.Equal(t, model.JobSucceeded, got[3].Status)
}

func TestStreamUnknownJob(t *testing.T) {
	_, mux := setup()
	w := do(mux, http.MethodGet, "/stories/nope/stream", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
