package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/repository"
)

// DispatchResult counts what one pass over the outbox did.
type DispatchResult struct {
	Sent    int
	Retried int
	Failed  int
}

// DispatchObserver is told about each dispatch pass that touched a message.
type DispatchObserver interface {
	ObserveDispatch(r DispatchResult)
}

// Dispatcher forwards pending outbox messages to a Publisher. A failed publish
// is retried with linear back-off until maxAttempts, then marked failed.
type Dispatcher struct {
	outbox      repository.OutboxRepo
	publisher   Publisher
	logger      *zap.Logger
	observer    DispatchObserver
	maxAttempts int
	interval    time.Duration
	backoff     time.Duration
	batchSize   int
	now         func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxAttempts = n }
}

func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.interval = interval }
}

func WithBackoff(step time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.backoff = step }
}

func WithBatchSize(n int) DispatcherOption {
	return func(d *Dispatcher) { d.batchSize = n }
}

func WithDispatchObserver(o DispatchObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(outbox repository.OutboxRepo, publisher Publisher, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		outbox:      outbox,
		publisher:   publisher,
		logger:      logger,
		maxAttempts: 5,
		interval:    time.Second,
		backoff:     5 * time.Second,
		batchSize:   100,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run dispatches on every tick until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("outbox dispatcher started",
		zap.Int("max_attempts", d.maxAttempts),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				d.logger.Error("outbox dispatch failed", zap.Error(err))
			}
		}
	}
}

// DispatchOnce publishes every message currently due, up to the batch size.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (DispatchResult, error) {
	var res DispatchResult
	msgs, err := d.outbox.ListDue(ctx, d.now(), d.batchSize)
	if err != nil {
		return res, err
	}

	for _, m := range msgs {
		if err := d.publisher.Publish(ctx, m.RoutingKey, m.ID, m.Payload); err != nil {
			status, markErr := d.outbox.MarkAttemptFailed(ctx, m.ID, err.Error(), d.maxAttempts, d.backoff, d.now())
			if markErr != nil {
				d.logger.Error("recording failed publish", zap.String("message_id", m.ID), zap.Error(markErr))
				continue
			}
			if status == domain.OutboxFailed {
				res.Failed++
				d.logger.Error("outbox message gave up",
					zap.String("message_id", m.ID),
					zap.String("routing_key", m.RoutingKey),
					zap.Int("attempts", m.Attempts+1),
					zap.Error(err),
				)
			} else {
				res.Retried++
				d.logger.Warn("outbox publish failed, will retry",
					zap.String("message_id", m.ID),
					zap.String("routing_key", m.RoutingKey),
					zap.Error(err),
				)
			}
			continue
		}

		if err := d.outbox.MarkSent(ctx, m.ID, d.now()); err != nil {
			d.logger.Error("marking outbox message sent", zap.String("message_id", m.ID), zap.Error(err))
			continue
		}
		res.Sent++
		d.logger.Debug("outbox message sent", zap.String("message_id", m.ID), zap.String("routing_key", m.RoutingKey))
	}

	if d.observer != nil && len(msgs) > 0 {
		d.observer.ObserveDispatch(res)
	}
	return res, nil
}

// Replay puts a sent or failed message back in the queue.
func (d *Dispatcher) Replay(ctx context.Context, id string) error {
	return d.outbox.Requeue(ctx, id, d.now())
}
