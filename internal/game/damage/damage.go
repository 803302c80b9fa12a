// Package damage defines damage events and the sinks that receive them.
package damage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cause labels what produced a damage event.
type Cause string

const (
	// CauseAttack is direct damage from a resolved attack.
	CauseAttack Cause = "attack"
	// CauseCounter is damage from a counter-hit.
	CauseCounter Cause = "counter"
	// CauseAbility is burst damage emitted by an ability.
	CauseAbility Cause = "ability"
)

// StatusCause returns the cause used for periodic damage of a status type.
func StatusCause(statusName string) Cause {
	return Cause("status:" + statusName)
}

// Event is one amount of damage dealt to Target.
type Event struct {
	ID     string
	Target string
	Amount float64
	// Source is the entity the damage is attributed to; empty when unknown.
	Source string
	Cause  Cause
}

// NewEvent returns an Event with a fresh ID.
func NewEvent(target string, amount float64, source string, cause Cause) Event {
	return Event{ID: uuid.NewString(), Target: target, Amount: amount, Source: source, Cause: cause}
}

// Sink receives damage events. The combat core never applies damage to
// health itself; the host owns health.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Multi fans every event out to each sink in order.
type Multi []Sink

// Emit forwards ev to every sink.
func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// LoggingSink logs each event at debug level.
type LoggingSink struct {
	logger *zap.Logger
}

// NewLoggingSink returns a sink writing to logger.
//
// Precondition: logger must be non-nil.
func NewLoggingSink(logger *zap.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

// Emit logs ev.
func (s *LoggingSink) Emit(_ context.Context, ev Event) {
	s.logger.Debug("damage",
		zap.String("event_id", ev.ID),
		zap.String("target", ev.Target),
		zap.String("source", ev.Source),
		zap.String("cause", string(ev.Cause)),
		zap.Float64("amount", ev.Amount),
	)
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Total returns the summed amount dealt to target.
func (r *Recorder) Total(target string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, ev := range r.events {
		if ev.Target == target {
			sum += ev.Amount
		}
	}
	return sum
}
