// Package analytics receives the timed pass events a pipeline run emits.
package analytics

import (
	"context"
	"time"

	"github.com/okian/storyloom/internal/domain/model"
)

// Sink receives pass events. Implementations must be safe for concurrent use
// when shared between runs.
type Sink = model.EventSink

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev model.TimedEvent)

// OnEvent calls f.
func (f SinkFunc) OnEvent(ctx context.Context, ev model.TimedEvent) { f(ctx, ev) }

type nopSink struct{}

func (nopSink) OnEvent(context.Context, model.TimedEvent) {}

// Nop drops every event.
var Nop Sink = nopSink{}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

type multiSink []Sink

func (m multiSink) OnEvent(ctx context.Context, ev model.TimedEvent) {
	for _, s := range m {
		s.OnEvent(ctx, ev)
	}
}

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Nop
	case 1:
		return out[0]
	}
	return out
}

// Timer measures one pass and reports it to a sink.
type Timer struct {
	sink  Sink
	name  model.EventName
	pass  int
	start time.Time
}

// Start begins timing a pass. A nil sink is allowed.
func Start(sink Sink, name model.EventName, pass int) *Timer {
	return &Timer{sink: OrNop(sink), name: name, pass: pass, start: time.Now()}
}

// End emits the event and returns it.
func (t *Timer) End(ctx context.Context, ok bool, meta model.EventMeta) model.TimedEvent {
	now := time.Now()
	ev := model.TimedEvent{
		Name:     t.name,
		Pass:     t.pass,
		OK:       ok,
		Duration: now.Sub(t.start),
		Meta:     meta,
		At:       now,
	}
	t.sink.OnEvent(ctx, ev)
	return ev
}

// Fail emits a failed event carrying err.
func (t *Timer) Fail(ctx context.Context, err error) model.TimedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return t.End(ctx, false, model.FailureMeta{Error: msg})
}
