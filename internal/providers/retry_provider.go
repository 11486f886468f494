package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
	maxBackoff           = 5 * time.Second
)

// retryingFetcher wraps a Fetcher with bounded exponential backoff. A source that
// reports no running event is not retried.
type retryingFetcher struct {
	inner       Fetcher
	logger      *slog.Logger
	name        string
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// NewRetryingFetcher wraps inner with retries. If maxAttempts/initial are <= 0, defaults are used.
func NewRetryingFetcher(inner Fetcher, logger *slog.Logger, name string, maxAttempts int, initial time.Duration) Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if initial <= 0 {
		initial = defaultBackoff
	}
	return &retryingFetcher{
		inner:       inner,
		logger:      logger,
		name:        name,
		maxAttempts: maxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = maxBackoff
			b.MaxElapsedTime = 0
			return b
		},
	}
}

func (r *retryingFetcher) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	if r.inner == nil {
		return nil, ErrProviderUnavailable
	}

	var snap *leaderboard.Snapshot
	attempt := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		s, err := r.inner.FetchSnapshot(ctx)
		if err != nil {
			if IsNoEvent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		snap = s
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logWithSource(ctx, r.logger, slog.LevelWarn, r.name, "leaderboard fetch retry",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if !IsNoEvent(err) {
			logWithSource(ctx, r.logger, slog.LevelWarn, r.name, "leaderboard fetch failed", "attempts", attempt, "error", err)
		}
		return nil, err
	}
	return snap, nil
}
