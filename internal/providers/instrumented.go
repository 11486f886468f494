package providers

import (
	"context"
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
)

type instrumentedFetcher struct {
	inner    Fetcher
	recorder *metrics.Recorder
	name     string
}

// WithMetrics records every fetch attempt against the recorder under name.
func WithMetrics(inner Fetcher, recorder *metrics.Recorder, name string) Fetcher {
	if recorder == nil {
		return inner
	}
	return &instrumentedFetcher{inner: inner, recorder: recorder, name: name}
}

func (f *instrumentedFetcher) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	start := time.Now()
	snap, err := f.inner.FetchSnapshot(ctx)
	f.recorder.RecordFetchAttempt(f.name, time.Since(start), err)
	return snap, err
}

// Reset forwards to the wrapped fetcher so Switch can still rewind a fixture.
func (f *instrumentedFetcher) Reset() {
	if r, ok := f.inner.(resetter); ok {
		r.Reset()
	}
}
