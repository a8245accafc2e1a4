// Package worker applies queued outcome events to the region table.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/moltyroyale/agent/internal/adapters/mq/queue"
	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/logger"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// Default worker configuration constants.
const workerShutdownTimeout = 5 * time.Second

// Event is what the applier reads off the queue.
type Event = model.OutcomeEvent

// Updater folds one outcome event into the region value table.
type Updater interface {
	Apply(ctx context.Context, e model.OutcomeEvent) (float64, error)
}

// Queue defines how the applier receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Applier drains the outcome queue into the region store. One applier
// per store preserves per-region event order; the store's shard locks
// make each apply atomic.
type Applier struct {
	queue   Queue
	updater Updater
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Applier.
type Option func(*Applier)

// WithName sets the applier name used in logs.
func WithName(name string) Option {
	return func(a *Applier) {
		if name != "" {
			a.name = name
		}
	}
}

// WithLogger sets a custom logger for the applier.
func WithLogger(l logger.Logger) Option {
	return func(a *Applier) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApplier creates an outcome event applier.
func NewApplier(q Queue, updater Updater, opts ...Option) *Applier {
	a := &Applier{
		queue:    q,
		updater:  updater,
		name:     "region-applier",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("region-applier"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run drains the queue until ctx is canceled or Shutdown is called.
func (a *Applier) Run(ctx context.Context) {
	defer close(a.done)

	events := a.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			a.apply(ctx, event)
		}
	}
}

// Shutdown stops the applier, waiting briefly for the current event.
func (a *Applier) Shutdown(ctx context.Context) error {
	close(a.shutdown)

	timer := time.NewTimer(workerShutdownTimeout)
	defer timer.Stop()
	select {
	case <-a.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("applier %s shutdown timed out", a.name)
	case <-ctx.Done():
		return fmt.Errorf("applier shutdown: %w", ctx.Err())
	}
}

func (a *Applier) apply(ctx context.Context, event queue.Event) {
	start := time.Now()
	score, err := a.updater.Apply(ctx, event)
	metrics.RecordApplyLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		a.logger.Error(ctx, "outcome event rejected",
			logger.String("eventID", event.EventID),
			logger.String("kind", string(event.Kind)),
			logger.String("region", event.Region),
			logger.Error(err),
		)
		return
	}

	metrics.RecordEventApplied()
	a.logger.Debug(ctx, "region score updated",
		logger.String("region", event.Region),
		logger.String("kind", string(event.Kind)),
		logger.Float64("score", score),
	)
}
