package delivery

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
)

const defaultWorkers = 8

// Remover drops a subscriber after a permanent delivery failure.
type Remover interface {
	RemoveSubscriber(ctx context.Context, key subscribers.Key) error
}

// Summary counts the outcomes of one fan-out.
type Summary struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Transient int `json:"transient"`
	Permanent int `json:"permanent"`
	Removed   int `json:"removed"`
}

// Fanout delivers a batch of events with bounded parallelism. One subscriber's failure
// never stops delivery to the others; nothing is retried within a batch.
type Fanout struct {
	deliverer Deliverer
	remover   Remover
	recorder  *metrics.Recorder
	logger    *slog.Logger
	workers   int
}

// NewFanout builds a fan-out over deliverer. A non-positive workers uses the default.
func NewFanout(deliverer Deliverer, remover Remover, recorder *metrics.Recorder, logger *slog.Logger, workers int) *Fanout {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Fanout{
		deliverer: deliverer,
		remover:   remover,
		recorder:  recorder,
		logger:    logger,
		workers:   workers,
	}
}

// Notify delivers every event and waits for all of them.
func (f *Fanout) Notify(ctx context.Context, events []notifications.Event) Summary {
	logger := logging.FromContext(ctx, f.logger)

	var (
		mu      sync.Mutex
		sum     = Summary{Attempted: len(events)}
		removed = map[subscribers.Key]bool{}
	)

	var g errgroup.Group
	g.SetLimit(f.workers)
	for _, ev := range events {
		g.Go(func() error {
			err := f.deliverer.Deliver(ctx, ev)
			outcome := metrics.OutcomeDelivered
			switch {
			case err == nil:
			case IsPermanent(err):
				outcome = metrics.OutcomePermanent
			default:
				outcome = metrics.OutcomeTransient
			}
			if f.recorder != nil {
				f.recorder.RecordNotification(string(ev.Kind), outcome)
			}

			key := ev.Subscriber.Key()
			mu.Lock()
			first := false
			switch outcome {
			case metrics.OutcomeDelivered:
				sum.Delivered++
			case metrics.OutcomeTransient:
				sum.Transient++
			case metrics.OutcomePermanent:
				sum.Permanent++
				if !removed[key] {
					removed[key] = true
					first = true
				}
			}
			mu.Unlock()

			if outcome == metrics.OutcomeTransient {
				logging.Warn(logger, "delivery failed",
					slog.String(logging.FieldSubscriber, key.String()),
					slog.String(logging.FieldKind, string(ev.Kind)),
					"error", err,
				)
			}
			if first {
				f.remove(ctx, logger, ev.Subscriber, err, &mu, &sum)
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.Info(logger, "notifications sent",
		slog.Int(logging.FieldCount, sum.Attempted),
		slog.Int("delivered", sum.Delivered),
		slog.Int("transient", sum.Transient),
		slog.Int("permanent", sum.Permanent),
	)
	return sum
}

func (f *Fanout) remove(ctx context.Context, logger *slog.Logger, sub subscribers.Subscriber, cause error, mu *sync.Mutex, sum *Summary) {
	key := sub.Key()
	logging.Warn(logger, "subscriber unreachable, removing",
		slog.String(logging.FieldSubscriber, key.String()),
		"error", cause,
	)
	if f.remover == nil {
		return
	}
	if err := f.remover.RemoveSubscriber(ctx, key); err != nil {
		logging.Error(logger, "subscriber removal failed", err, slog.String(logging.FieldSubscriber, key.String()))
		return
	}
	if f.recorder != nil {
		f.recorder.RecordSubscriberRemoval(string(sub.Platform))
	}
	mu.Lock()
	sum.Removed++
	mu.Unlock()
}
