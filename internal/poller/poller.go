package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
)

const (
	defaultInterval = time.Minute
	readyErrorLimit = 3
)

// Cycler runs one fetch, diff and notify pass.
type Cycler interface {
	RunCycle(ctx context.Context) (engine.Report, error)
}

// Poller drives the engine on a fixed interval. Cycles never overlap; a failed fetch
// is recorded and the next tick proceeds normally.
type Poller struct {
	cycler   Cycler
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	ConsecutiveErrors   int       `json:"consecutiveErrors"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
	Round               string    `json:"round"`
}

// IsReady reports whether the loop has run and the source is not failing repeatedly.
// A source with no running round is healthy; only transport errors count here.
func (s Status) IsReady() bool {
	if s.LastAttempt.IsZero() {
		return false
	}
	return s.ConsecutiveErrors < readyErrorLimit
}

// New constructs a Poller with sane defaults.
func New(cycler Cycler, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		cycler:   cycler,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		status:   Status{Round: engine.NotStarted.String()},
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	go func() {
		defer close(p.exited)
		p.logInfo("poller started", slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))
		p.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				p.logInfo("poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				p.logInfo("poller stopped")
				return
			case <-p.ticker.C:
				p.runOnce(ctx)
			}
		}
	}()
}

// Stop halts the polling loop and waits for an in-flight cycle to finish, or for
// ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.done)
	})

	p.startMu.Lock()
	started := p.started
	p.startMu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-p.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	start := p.now()
	report, err := p.cycler.RunCycle(ctx)
	if errors.Is(err, engine.ErrBusy) {
		p.logInfo("poll skipped, cycle already running")
		return
	}
	if ctx.Err() != nil {
		p.logInfo("poll abandoned", "error", ctx.Err())
		return
	}
	if p.metrics != nil {
		p.metrics.RecordCycle(time.Since(start), report.FetchErr)
	}

	if report.FetchErr != nil {
		p.recordFailure(report.FetchErr, start, report.Round)
		if !providers.IsNoEvent(report.FetchErr) {
			p.logError("poll failed", report.FetchErr, slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
		}
		return
	}
	if err != nil {
		p.logError("poll cycle incomplete", err)
	}

	p.recordSuccess(start, report.Round)
	p.logInfo("poll completed",
		slog.String(logging.FieldCycleID, report.CycleID),
		slog.String(logging.FieldRound, report.Round),
		slog.Int(logging.FieldCount, report.Events),
		slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()),
	)
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Poller) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Poller) logError(msg string, err error, attrs ...any) {
	if p.logger != nil {
		p.logger.Error(msg, append(attrs, "error", err)...)
	}
}

func (p *Poller) recordSuccess(at time.Time, round string) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.ConsecutiveErrors = 0
	p.status.LastError = ""
	p.status.LastAttempt = at
	p.status.LastSuccess = at
	p.status.Round = round
}

func (p *Poller) recordFailure(err error, at time.Time, round string) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if providers.IsNoEvent(err) {
		p.status.ConsecutiveErrors = 0
	} else {
		p.status.ConsecutiveErrors++
	}
	p.status.LastError = err.Error()
	p.status.LastAttempt = at
	if round != "" {
		p.status.Round = round
	}
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
