// Package types contains the request and response bodies of the HTTP API.
package types

import (
	"github.com/okian/storyloom/internal/domain/companion"
	"github.com/okian/storyloom/internal/domain/model"
)

// RunOptions are per-submission overrides. Nil fields keep the server default.
type RunOptions struct {
	QualityThreshold    *float64 `json:"qualityThreshold,omitempty" yaml:"qualityThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxRevisionCycles   *int     `json:"maxRevisionCycles,omitempty" yaml:"maxRevisionCycles,omitempty" validate:"omitempty,gte=0,lte=10"`
	MaxTokens           *int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty" validate:"omitempty,gte=256,lte=32768"`
	StrictPhonics       *bool    `json:"strictPhonics,omitempty" yaml:"strictPhonics,omitempty"`
	RevisionConcurrency *int     `json:"revisionConcurrency,omitempty" yaml:"revisionConcurrency,omitempty" validate:"omitempty,gte=1,lte=3"`
}

// SubmitRequest is the body of POST /stories.
type SubmitRequest struct {
	Input   model.StoryInput `json:"input"`
	Options RunOptions       `json:"options"`
}

// SubmitResponse acknowledges a submission.
type SubmitResponse struct {
	ID        string          `json:"id"`
	Status    model.JobStatus `json:"status"`
	Duplicate bool            `json:"duplicate"`
}

// JobLinks point at the renderings of a finished story.
type JobLinks struct {
	Self     string `json:"self"`
	Stream   string `json:"stream"`
	Markdown string `json:"markdown,omitempty"`
	HTML     string `json:"html,omitempty"`
	Text     string `json:"text,omitempty"`
}

// JobView is a job as returned by GET /stories/{id}.
type JobView struct {
	*model.Job
	Links JobLinks `json:"links"`
}

// NewJobView wraps job with its links.
func NewJobView(job *model.Job) JobView {
	base := "/stories/" + job.ID
	v := JobView{Job: job, Links: JobLinks{Self: base, Stream: base + "/stream"}}
	if job.Status == model.JobSucceeded {
		v.Links.Markdown = base + "/story.md"
		v.Links.HTML = base + "/story.html"
		v.Links.Text = base + "/story.txt"
	}
	return v
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

// QuestionsRequest asks for comprehension questions about a finished story.
type QuestionsRequest struct {
	Count int      `json:"count" validate:"gte=0,lte=20"`
	Types []string `json:"types"`
}

// QuestionsResponse lists generated questions.
type QuestionsResponse struct {
	Questions []companion.Question `json:"questions"`
}

// PromptsRequest asks for pre-reading prompts.
type PromptsRequest struct {
	Count int `json:"count" validate:"gte=0,lte=10"`
}

// PromptsResponse lists generated prompts.
type PromptsResponse struct {
	Prompts []string `json:"prompts"`
}

// RandomInputRequest asks for random story ideas. An empty grade picks one.
type RandomInputRequest struct {
	GradeLevel model.GradeLevel `json:"gradeLevel"`
	Count      int              `json:"count" validate:"gte=0,lte=5"`
}

// RandomInputResponse lists generated ideas.
type RandomInputResponse struct {
	Options []companion.Idea `json:"options"`
}

// PhonicsRequest asks for a phonics analysis of free text.
type PhonicsRequest struct {
	Text       string           `json:"text" validate:"required"`
	Skill      string           `json:"phonicSkill" validate:"required"`
	GradeLevel model.GradeLevel `json:"gradeLevel" validate:"grade"`
	Theme      string           `json:"theme"`
}

// PhonicsResponse is the local analysis of a PhonicsRequest.
type PhonicsResponse struct {
	Analysis       model.PhonicsAnalysis       `json:"analysis"`
	Validation     model.IntegrationValidation `json:"validation"`
	Grade          model.StoryValidation       `json:"gradeValidation"`
	WordBank       []string                    `json:"wordBank"`
	WritingPrompts []string                    `json:"writingPrompts"`
}

// Stats is the body of GET /stats.
type Stats struct {
	Jobs          map[model.JobStatus]int `json:"jobs"`
	StoredJobs    int                     `json:"storedJobs"`
	QueueLength   int                     `json:"queueLength"`
	QueueCapacity int                     `json:"queueCapacity"`
	Workers       int                     `json:"workers"`
	StreamClients int                     `json:"streamClients"`
	DedupeKeys    int64                   `json:"dedupeKeys"`
	UptimeSeconds float64                 `json:"uptimeSeconds"`
}

// StreamMessage is one websocket frame on /stories/{id}/stream. Seq is the
// 1-based position of an event in the job's event list.
type StreamMessage struct {
	Type   string            `json:"type"`
	Seq    int               `json:"seq,omitempty"`
	Event  *model.TimedEvent `json:"event,omitempty"`
	Status model.JobStatus   `json:"status,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Stream frame types.
const (
	StreamEvent  = "event"
	StreamStatus = "status"
)
