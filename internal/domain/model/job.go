package model

import "time"

// JobStatus is the lifecycle state of a submitted story job.
type JobStatus string

// Job states. Succeeded, Failed and Cancelled are terminal.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// Illustration is a stored picture generated for a story.
type Illustration struct {
	Key         string    `json:"key"`
	Prompt      string    `json:"prompt"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	Seed        int64     `json:"seed,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Job is an asynchronous pipeline run tracked by the service.
type Job struct {
	ID            string          `json:"id"`
	Status        JobStatus       `json:"status"`
	Input         StoryInput      `json:"input"`
	Options       PipelineOptions `json:"options"`
	Result        *Result         `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	Events        []TimedEvent    `json:"events,omitempty"`
	Illustrations []Illustration  `json:"illustrations,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Clone returns a copy safe to hand to readers while the original keeps changing.
// The Result is shared; it is not modified once set.
func (j *Job) Clone() *Job {
	c := *j
	c.Events = append([]TimedEvent(nil), j.Events...)
	c.Illustrations = append([]Illustration(nil), j.Illustrations...)
	return &c
}
