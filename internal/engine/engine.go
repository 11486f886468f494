package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/store"
)

// Registry lists the subscribers a cycle notifies.
type Registry interface {
	ListSubscribers(ctx context.Context) ([]subscribers.Subscriber, error)
}

// Notifier delivers a batch of events.
type Notifier interface {
	Notify(ctx context.Context, events []notifications.Event) delivery.Summary
}

// Report summarises one cycle.
type Report struct {
	CycleID  string           `json:"cycleId"`
	Round    string           `json:"round"`
	Started  bool             `json:"started"`
	Teams    int              `json:"teams"`
	Events   int              `json:"events"`
	Delivery delivery.Summary `json:"delivery"`
	FetchErr error            `json:"-"`
	Duration time.Duration    `json:"-"`
}

// Engine owns the snapshot store and round state and runs fetch, diff and notify
// cycles. Each successful fetch is committed and dispatched exactly once; running the
// dispatcher again on the same pair would repeat notifications, so callers go through
// RunCycle only.
type Engine struct {
	fetcher  providers.Fetcher
	registry Registry
	notifier Notifier
	logger   *slog.Logger
	store    *store.SnapshotStore
	round    Round
	running  atomic.Bool
	newID    func() string
}

// New constructs an engine with an empty store and the round not started.
func New(fetcher providers.Fetcher, registry Registry, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		fetcher:  fetcher,
		registry: registry,
		notifier: notifier,
		logger:   logger,
		store:    store.NewSnapshotStore(),
		newID:    uuid.NewString,
	}
}

// RunCycle performs one fetch, diff and notify pass. It returns ErrBusy without doing
// anything if another cycle is in flight. A fetch failure is returned as the error and
// also recorded on the report.
func (e *Engine) RunCycle(ctx context.Context) (Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Report{Round: e.round.State().String()}, ErrBusy
	}
	defer e.running.Store(false)

	start := time.Now()
	report := Report{CycleID: e.newID()}
	logger := logging.With(e.logger, slog.String(logging.FieldCycleID, report.CycleID))
	if logger != nil {
		ctx = logging.WithLogger(ctx, logger)
	}

	err := e.cycle(ctx, logger, &report)
	report.Round = e.round.State().String()
	report.Duration = time.Since(start)
	return report, err
}

// ForceCycle is the administrative trigger. It is rejected with ErrBusy, never queued.
func (e *Engine) ForceCycle(ctx context.Context) (Report, error) {
	report, err := e.RunCycle(ctx)
	if errors.Is(err, ErrBusy) {
		logging.Warn(e.logger, "forced cycle rejected", "error", err)
	}
	return report, err
}

// Busy reports whether a cycle is in flight.
func (e *Engine) Busy() bool {
	return e.running.Load()
}

func (e *Engine) cycle(ctx context.Context, logger *slog.Logger, report *Report) error {
	if e.fetcher == nil {
		e.round.Observe(false)
		report.FetchErr = providers.ErrProviderUnavailable
		return providers.ErrProviderUnavailable
	}

	snap, err := e.fetcher.FetchSnapshot(ctx)
	if err == nil && snap == nil {
		err = providers.ErrNoEventRunning
	}
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the source said nothing about the round.
		logging.Warn(logger, "cycle abandoned", "error", err)
		return err
	}
	if err != nil {
		tr := e.round.Observe(false)
		report.FetchErr = err
		if tr.From == Active {
			logging.Info(logger, "round ended", "error", err)
		} else {
			logging.Info(logger, "no round running", "error", err)
		}
		return err
	}

	pair := e.store.Commit(snap)
	tr := e.round.Observe(true)
	report.Started = tr.Started()
	report.Teams = snap.Len()

	subs, err := e.listSubscribers(ctx)
	if err != nil {
		logging.Error(logger, "subscriber list failed", err)
		return fmt.Errorf("list subscribers: %w", err)
	}

	var events []notifications.Event
	if tr.Started() {
		logging.Info(logger, "round started", logging.FieldCount, snap.Len())
		events = RoundStarted(subs)
	} else {
		diffs := Diff(pair)
		events = Changes(diffs, subs)
		logging.Debug(logger, "leaderboard diffed",
			slog.Int("teams_changed", len(diffs)),
			slog.Int(logging.FieldCount, len(events)),
		)
	}

	report.Events = len(events)
	if len(events) > 0 && e.notifier != nil {
		report.Delivery = e.notifier.Notify(ctx, events)
	}
	return nil
}

func (e *Engine) listSubscribers(ctx context.Context) ([]subscribers.Subscriber, error) {
	if e.registry == nil {
		return nil, nil
	}
	return e.registry.ListSubscribers(ctx)
}

// RoundActive reports whether the last fetch succeeded.
func (e *Engine) RoundActive() bool {
	return e.round.State() == Active
}

// State returns the round state.
func (e *Engine) State() RoundState {
	return e.round.State()
}

// Snapshots returns the committed pair, read atomically.
func (e *Engine) Snapshots() store.Pair {
	return e.store.Pair()
}

func (e *Engine) live() (*leaderboard.Snapshot, error) {
	if !e.RoundActive() {
		return nil, ErrRoundNotActive
	}
	cur := e.store.Current()
	if cur == nil {
		return nil, ErrRoundNotActive
	}
	return cur, nil
}

// Leaderboard returns the current standings.
func (e *Engine) Leaderboard() ([]leaderboard.Standing, error) {
	cur, err := e.live()
	if err != nil {
		return nil, err
	}
	return cur.Standings(), nil
}

// Questions returns the current round's questions in order.
func (e *Engine) Questions() ([]leaderboard.Question, error) {
	cur, err := e.live()
	if err != nil {
		return nil, err
	}
	return cur.Questions(), nil
}

// Team looks up one team. Unknown names yield leaderboard.ErrTeamNotFound.
func (e *Engine) Team(name string) (leaderboard.Standing, error) {
	cur, err := e.live()
	if err != nil {
		return leaderboard.Standing{}, err
	}
	return cur.Standing(name)
}

// Partial returns a team's score on one question. Unknown questions yield
// leaderboard.ErrQuestionNotFound, unknown teams leaderboard.ErrTeamNotFound.
func (e *Engine) Partial(team, question string) (float64, error) {
	cur, err := e.live()
	if err != nil {
		return 0, err
	}
	return cur.Partial(team, question)
}

// Board returns the current snapshot for rendering several views from one read.
func (e *Engine) Board() (*leaderboard.Snapshot, error) {
	return e.live()
}
