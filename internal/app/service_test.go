package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/types"
)

func started(opts ...service.Option) (*service.Service, *storyChat) {
	chat := newStoryChat()
	opts = append([]service.Option{service.WithWorkerCount(1), service.WithImages(stubImages{})}, opts...)
	svc := service.New(chat, opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc, chat
}

func stop(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

// waitFor polls a job until it reaches status or a second passes.
func waitFor(svc *service.Service, id string, status model.JobStatus) *model.Job {
	deadline := time.Now().Add(time.Second)
	for {
		job, err := svc.Get(context.Background(), id)
		if err == nil && job.Status == status {
			return job
		}
		if time.Now().After(deadline) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func request() types.SubmitRequest {
	return types.SubmitRequest{Input: friendship()}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := service.New(newStoryChat())

		Convey("Then job operations are refused", func() {
			_, err := svc.Submit(context.Background(), request(), "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Get(context.Background(), "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stats(context.Background()).StoredJobs, ShouldEqual, 0)
			So(svc.Stop(context.Background()), ShouldBeNil)
		})

		Convey("When it is started twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			defer stop(svc)

			Convey("Then the stats reflect the configured pool", func() {
				st := svc.Stats(context.Background())
				So(st.QueueCapacity, ShouldEqual, 1024)
				So(st.Workers, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestServiceSubmit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, chat := started()
		defer stop(svc)
		ctx := context.Background()

		Convey("When a valid story is submitted", func() {
			resp, err := svc.Submit(ctx, request(), "")
			So(err, ShouldBeNil)
			So(resp.Status, ShouldEqual, model.JobQueued)

			Convey("Then it runs to completion", func() {
				job := waitFor(svc, resp.ID, model.JobSucceeded)
				So(job.Status, ShouldEqual, model.JobSucceeded)
				So(job.Result.Story.SentenceCount(), ShouldEqual, 4)
				So(job.Result.FinalReport.OverallAssessment, ShouldEqual, model.AssessmentGood)
				So(job.Events, ShouldHaveLength, 2)
				So(job.Options.QualityThreshold, ShouldEqual, model.DefaultQualityThreshold)
				So(chat.count("generate"), ShouldEqual, 1)

				res, err := svc.Result(ctx, resp.ID)
				So(err, ShouldBeNil)
				So(res.Story.Title, ShouldEqual, "The Shell Shop")
			})
		})

		Convey("When options override the defaults", func() {
			threshold, cycles := 0.7, 0
			req := request()
			req.Options = types.RunOptions{QualityThreshold: &threshold, MaxRevisionCycles: &cycles}
			resp, err := svc.Submit(ctx, req, "")
			So(err, ShouldBeNil)

			Convey("Then the job keeps the resolved options", func() {
				job := waitFor(svc, resp.ID, model.JobSucceeded)
				So(job.Options.QualityThreshold, ShouldEqual, 0.7)
				So(job.Options.MaxRevisionCycles, ShouldEqual, 0)
				So(job.Options.StrictPhonics, ShouldBeTrue)
			})
		})

		Convey("When the input and options are invalid", func() {
			bad := 2.0
			req := types.SubmitRequest{
				Input:   model.StoryInput{Theme: "sea", Genre: "fable", PhonicSkill: "sh", Length: 5, GradeLevel: "9"},
				Options: types.RunOptions{QualityThreshold: &bad},
			}
			_, err := svc.Submit(ctx, req, "")

			Convey("Then both problems are reported and no job exists", func() {
				var ve *service.ValidationError
				So(errors.As(err, &ve), ShouldBeTrue)
				So(ve.Problems, ShouldHaveLength, 2)
				So(svc.Stats(ctx).StoredJobs, ShouldEqual, 0)
			})
		})

		Convey("When the same idempotency key is used twice", func() {
			first, err := svc.Submit(ctx, request(), "key-1")
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, request(), "key-1")
			So(err, ShouldBeNil)

			Convey("Then the first job is returned", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(second.Duplicate, ShouldBeTrue)
				So(first.Duplicate, ShouldBeFalse)
				waitFor(svc, first.ID, model.JobSucceeded)
				So(chat.count("generate"), ShouldEqual, 1)
				So(svc.Stats(ctx).DedupeKeys, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceCancel(t *testing.T) {
	Convey("Given a service whose only worker is blocked", t, func() {
		svc, chat := started()
		defer stop(svc)
		ctx := context.Background()
		chat.gate = make(chan struct{})

		running, err := svc.Submit(ctx, request(), "")
		So(err, ShouldBeNil)
		<-chat.started

		Convey("When a waiting job is cancelled", func() {
			queued, err := svc.Submit(ctx, request(), "")
			So(err, ShouldBeNil)
			job, err := svc.Cancel(ctx, queued.ID)

			Convey("Then it never runs", func() {
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, model.JobCancelled)
				So(job.Error, ShouldEqual, "operation cancelled")

				close(chat.gate)
				waitFor(svc, running.ID, model.JobSucceeded)
				time.Sleep(20 * time.Millisecond)
				So(chat.count("generate"), ShouldEqual, 1)

				_, err = svc.Cancel(ctx, queued.ID)
				So(errors.Is(err, service.ErrFinished), ShouldBeTrue)
			})
		})

		Convey("When the running job is cancelled", func() {
			_, err := svc.Cancel(ctx, running.ID)
			So(err, ShouldBeNil)

			Convey("Then it ends cancelled without a result", func() {
				job := waitFor(svc, running.ID, model.JobCancelled)
				So(job.Status, ShouldEqual, model.JobCancelled)
				So(job.Error, ShouldEqual, "operation cancelled")
				So(job.Result, ShouldBeNil)

				_, err := svc.Result(ctx, running.ID)
				So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
			})
		})

		Convey("When an unknown job is cancelled", func() {
			_, err := svc.Cancel(ctx, "missing")
			So(err, ShouldNotBeNil)
			close(chat.gate)
		})
	})
}

func TestServiceTimeoutAndFailure(t *testing.T) {
	Convey("Given a service with a short run timeout", t, func() {
		svc, chat := started(service.WithRunTimeout(50 * time.Millisecond))
		defer stop(svc)
		chat.gate = make(chan struct{})

		Convey("When generation never returns", func() {
			resp, err := svc.Submit(context.Background(), request(), "")
			So(err, ShouldBeNil)

			Convey("Then the job fails with a timeout", func() {
				job := waitFor(svc, resp.ID, model.JobFailed)
				So(job.Status, ShouldEqual, model.JobFailed)
				So(job.Error, ShouldEqual, "run timed out after 50ms")
			})
		})
	})

	Convey("Given a service whose model errors", t, func() {
		svc, chat := started()
		defer stop(svc)
		chat.storyErr = errors.New("upstream down")

		Convey("When a story is submitted", func() {
			resp, err := svc.Submit(context.Background(), request(), "")
			So(err, ShouldBeNil)

			Convey("Then the job fails with the pipeline message", func() {
				job := waitFor(svc, resp.ID, model.JobFailed)
				So(job.Error, ShouldStartWith, "story generation failed: ")
				So(job.Error, ShouldContainSubstring, "upstream down")
			})
		})
	})
}

func TestServiceBusy(t *testing.T) {
	Convey("Given a service with a one slot queue and a blocked worker", t, func() {
		svc, chat := started(service.WithQueueSize(1))
		defer stop(svc)
		chat.gate = make(chan struct{})
		defer close(chat.gate)
		ctx := context.Background()

		Convey("When submissions keep coming", func() {
			_, err := svc.Submit(ctx, request(), "k-first")
			So(err, ShouldBeNil)
			<-chat.started
			var busy error
			for i := 0; i < 10 && busy == nil; i++ {
				_, busy = svc.Submit(ctx, request(), fmt.Sprintf("k-%d", i))
			}

			Convey("Then the service reports it is busy", func() {
				So(errors.Is(busy, service.ErrBusy), ShouldBeTrue)
				st := svc.Stats(ctx)
				So(st.Jobs[model.JobFailed], ShouldEqual, 1)
				So(st.QueueCapacity, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceStream(t *testing.T) {
	Convey("Given a job held before generation", t, func() {
		svc, chat := started()
		defer stop(svc)
		chat.gate = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		resp, err := svc.Submit(ctx, request(), "")
		So(err, ShouldBeNil)
		<-chat.started

		Convey("When a client streams it", func() {
			snap, ch, err := svc.Stream(ctx, resp.ID)
			So(err, ShouldBeNil)
			So(snap.Status, ShouldEqual, model.JobRunning)
			close(chat.gate)

			var msgs []types.StreamMessage
			for m := range ch {
				msgs = append(msgs, m)
			}

			Convey("Then events arrive in order and the final status closes it", func() {
				So(len(msgs), ShouldBeGreaterThanOrEqualTo, 3)
				So(msgs[0].Type, ShouldEqual, types.StreamEvent)
				So(msgs[0].Seq, ShouldEqual, 1)
				So(msgs[0].Event.Name, ShouldEqual, model.EventStoryGeneration)
				So(msgs[1].Seq, ShouldEqual, 2)
				last := msgs[len(msgs)-1]
				So(last.Type, ShouldEqual, types.StreamStatus)
				So(last.Status, ShouldEqual, model.JobSucceeded)
				So(svc.Stats(ctx).StreamClients, ShouldEqual, 0)
			})
		})
	})
}

func TestServiceCompanion(t *testing.T) {
	Convey("Given a finished story job", t, func() {
		svc, chat := started()
		defer stop(svc)
		ctx := context.Background()

		resp, err := svc.Submit(ctx, request(), "")
		So(err, ShouldBeNil)
		waitFor(svc, resp.ID, model.JobSucceeded)

		Convey("When questions and prompts are requested", func() {
			qs, err := svc.Questions(ctx, resp.ID, types.QuestionsRequest{})
			So(err, ShouldBeNil)
			ps, err := svc.Prompts(ctx, resp.ID, types.PromptsRequest{Count: 1})
			So(err, ShouldBeNil)

			Convey("Then both come from the model", func() {
				So(qs[0].Text, ShouldEqual, "What does Shay have?")
				So(ps, ShouldResemble, []string{"Think about something special you found."})
				So(chat.count("questions"), ShouldEqual, 1)
				So(chat.count("prompts"), ShouldEqual, 1)
			})
		})

		Convey("When too many questions are requested", func() {
			_, err := svc.Questions(ctx, resp.ID, types.QuestionsRequest{Count: 50})
			var ve *service.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(chat.count("questions"), ShouldEqual, 0)
		})

		Convey("When the story is illustrated", func() {
			ill, err := svc.Illustrate(ctx, resp.ID)
			So(err, ShouldBeNil)

			Convey("Then the picture is stored and attached to the job", func() {
				So(strings.HasPrefix(ill.Key, resp.ID+"/"), ShouldBeTrue)
				So(ill.Key, ShouldEndWith, ".png")
				So(ill.Prompt, ShouldEqual, "A girl holding a pink shell")
				So(ill.Seed, ShouldEqual, 42)
				So(ill.Size, ShouldEqual, 4)

				obj, err := svc.Illustration(ctx, ill.Key)
				So(err, ShouldBeNil)
				So(obj.ContentType, ShouldEqual, "image/png")
				So(obj.Data, ShouldResemble, []byte{0x89, 'P', 'N', 'G'})

				job, _ := svc.Get(ctx, resp.ID)
				So(job.Illustrations, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a job that has not finished", t, func() {
		svc, chat := started()
		defer stop(svc)
		chat.gate = make(chan struct{})
		defer close(chat.gate)

		resp, err := svc.Submit(context.Background(), request(), "")
		So(err, ShouldBeNil)

		Convey("Then companion operations are not ready", func() {
			_, err := svc.Illustrate(context.Background(), resp.ID)
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
		})
	})
}

func TestServiceRandomInputs(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := started()
		defer stop(svc)
		ctx := context.Background()

		Convey("When ideas are requested for grade 1", func() {
			ideas, err := svc.RandomInputs(ctx, types.RandomInputRequest{GradeLevel: model.Grade1, Count: 2})

			Convey("Then each carries the grade", func() {
				So(err, ShouldBeNil)
				So(ideas, ShouldHaveLength, 2)
				So(ideas[0].GradeLevel, ShouldEqual, model.Grade1)
				So(ideas[0].Theme, ShouldEqual, "ocean")
			})
		})

		Convey("When the grade is unknown", func() {
			_, err := svc.RandomInputs(ctx, types.RandomInputRequest{GradeLevel: "12"})
			var ve *service.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
		})
	})
}
