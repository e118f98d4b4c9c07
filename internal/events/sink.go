// Package events delivers committed domain events: in-process sinks are
// notified right after commit, and the outbox dispatcher forwards the same
// events to the message bus.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/domain"
)

// Sink receives events after the state change that produced them has
// committed. Delivery is fire-and-forget: a sink handles its own failures.
type Sink interface {
	Publish(ctx context.Context, events []domain.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, events []domain.Event)

func (f SinkFunc) Publish(ctx context.Context, events []domain.Event) { f(ctx, events) }

// NopSink discards events.
type NopSink struct{}

func (NopSink) Publish(context.Context, []domain.Event) {}

// MultiSink fans events out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, events []domain.Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ctx, events)
		}
	}
}

// Recorder keeps every event it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Publish(_ context.Context, events []domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in delivery order.
func (r *Recorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Count reports how many events of type t were recorded.
func (r *Recorder) Count(t domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogSink writes one structured log line per event.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, events []domain.Event) {
	for _, e := range events {
		s.logger.Info("domain event",
			zap.String("type", string(e.Type)),
			zap.String("routing_key", e.RoutingKey()),
			zap.Int64("project_id", e.ProjectID),
			zap.Any("payload", e.Payload),
		)
	}
}
