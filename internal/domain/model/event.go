package model

import (
	"encoding/json"
	"time"
)

// EventName identifies a pipeline pass in analytics.
type EventName string

// Pass event names.
const (
	EventStoryGeneration   EventName = "story-generation"
	EventStoryEvaluation   EventName = "story-evaluation"
	EventTargetedRevisions EventName = "targeted-revisions"
)

// EventMeta is the typed payload of a TimedEvent.
type EventMeta interface {
	eventMeta()
}

// GenerationMeta describes a successful generation pass.
type GenerationMeta struct {
	Title         string `json:"title"`
	SentenceCount int    `json:"sentenceCount"`
	PhonicsTarget string `json:"phonicsTarget"`
}

// EvaluationMeta describes a successful evaluation pass.
type EvaluationMeta struct {
	OverallScore       float64 `json:"overallScore"`
	MeetsStandards     bool    `json:"meetsStandards"`
	CriticalIssueCount int     `json:"criticalIssueCount"`
}

// RevisionMeta describes one revision pass.
type RevisionMeta struct {
	CriticalRevisions int `json:"criticalRevisions"`
	RevisionsApplied  int `json:"revisionsApplied"`
}

// FailureMeta carries the error of a failed pass.
type FailureMeta struct {
	Error string `json:"error"`
}

func (GenerationMeta) eventMeta() {}
func (EvaluationMeta) eventMeta() {}
func (RevisionMeta) eventMeta()   {}
func (FailureMeta) eventMeta()    {}

// TimedEvent records one pass of a pipeline run.
type TimedEvent struct {
	Name     EventName     `json:"name"`
	Pass     int           `json:"pass"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"-"`
	Meta     EventMeta     `json:"meta,omitempty"`
	At       time.Time     `json:"at"`
}

// DurationMs is Duration in fractional milliseconds.
func (e TimedEvent) DurationMs() float64 {
	return float64(e.Duration) / float64(time.Millisecond)
}

type timedEventJSON struct {
	Name       EventName       `json:"name"`
	Pass       int             `json:"pass"`
	OK         bool            `json:"ok"`
	DurationMs float64         `json:"durationMs"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	At         time.Time       `json:"at"`
}

// MarshalJSON adds durationMs.
func (e TimedEvent) MarshalJSON() ([]byte, error) {
	out := timedEventJSON{Name: e.Name, Pass: e.Pass, OK: e.OK, DurationMs: e.DurationMs(), At: e.At}
	if e.Meta != nil {
		b, err := json.Marshal(e.Meta)
		if err != nil {
			return nil, err
		}
		out.Meta = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the concrete meta type from the event name and ok flag.
func (e *TimedEvent) UnmarshalJSON(b []byte) error {
	var in timedEventJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*e = TimedEvent{
		Name:     in.Name,
		Pass:     in.Pass,
		OK:       in.OK,
		Duration: time.Duration(in.DurationMs * float64(time.Millisecond)),
		At:       in.At,
	}
	if len(in.Meta) == 0 || string(in.Meta) == "null" {
		return nil
	}
	var meta EventMeta
	switch {
	case !in.OK:
		m := FailureMeta{}
		if err := json.Unmarshal(in.Meta, &m); err != nil {
			return err
		}
		meta = m
	case in.Name == EventStoryGeneration:
		m := GenerationMeta{}
		if err := json.Unmarshal(in.Meta, &m); err != nil {
			return err
		}
		meta = m
	case in.Name == EventStoryEvaluation:
		m := EvaluationMeta{}
		if err := json.Unmarshal(in.Meta, &m); err != nil {
			return err
		}
		meta = m
	case in.Name == EventTargetedRevisions:
		m := RevisionMeta{}
		if err := json.Unmarshal(in.Meta, &m); err != nil {
			return err
		}
		meta = m
	}
	e.Meta = meta
	return nil
}
