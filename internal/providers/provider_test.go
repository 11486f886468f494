package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
	"github.com/preston-bernstein/ranking-bot/internal/testutil"
)

type resettableFetcher struct {
	FetcherFunc
	resets int
}

func (r *resettableFetcher) Reset() { r.resets++ }

func TestSwitchRoutesToActiveSource(t *testing.T) {
	live := FetcherFunc(func(context.Context) (*leaderboard.Snapshot, error) {
		return testutil.Snapshot(map[string]float64{"live": 1}), nil
	})
	fixture := &resettableFetcher{FetcherFunc: func(context.Context) (*leaderboard.Snapshot, error) {
		return testutil.Snapshot(map[string]float64{"fixture": 1}), nil
	}}

	sw := NewSwitch(live, fixture, false)
	if sw.Mode() != ModeLive {
		t.Fatalf("expected live mode, got %s", sw.Mode())
	}
	snap, _ := sw.FetchSnapshot(context.Background())
	if !snap.HasTeam("live") {
		t.Fatalf("expected live snapshot")
	}

	if prev := sw.UseFixture(true); prev {
		t.Fatalf("expected previous setting false")
	}
	if fixture.resets != 1 {
		t.Fatalf("expected fixture rewound when enabled, got %d resets", fixture.resets)
	}
	sw.UseFixture(true)
	if fixture.resets != 1 {
		t.Fatalf("expected no rewind when already on")
	}
	snap, _ = sw.FetchSnapshot(context.Background())
	if !snap.HasTeam("fixture") || sw.Mode() != ModeFixture {
		t.Fatalf("expected fixture snapshot in fixture mode")
	}

	sw.UseFixture(false)
	snap, _ = sw.FetchSnapshot(context.Background())
	if !snap.HasTeam("live") {
		t.Fatalf("expected live snapshot after switching back")
	}
}

func TestSwitchWithoutSource(t *testing.T) {
	sw := NewSwitch(nil, nil, true)
	if _, err := sw.FetchSnapshot(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestWithMetricsRecordsAttempts(t *testing.T) {
	rec := metrics.NewRecorder()
	calls := 0
	inner := FetcherFunc(func(context.Context) (*leaderboard.Snapshot, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		time.Sleep(time.Millisecond)
		return testutil.Snapshot(nil), nil
	})
	f := WithMetrics(inner, rec, "ois")
	_, _ = f.FetchSnapshot(context.Background())
	_, _ = f.FetchSnapshot(context.Background())

	snap := rec.Snapshot("ois")
	if snap.Calls != 2 || snap.Errors != 1 {
		t.Fatalf("unexpected stats %+v", snap)
	}

	if got := WithMetrics(inner, nil, "ois"); got == nil {
		t.Fatalf("expected inner fetcher returned without recorder")
	}
}

func TestSwitchRewindsInstrumentedFixture(t *testing.T) {
	fixture := &resettableFetcher{FetcherFunc: func(context.Context) (*leaderboard.Snapshot, error) {
		return nil, ErrNoEventRunning
	}}
	sw := NewSwitch(nil, WithMetrics(fixture, metrics.NewRecorder(), "fixture"), false)
	sw.UseFixture(true)
	if fixture.resets != 1 {
		t.Fatalf("expected reset through metrics wrapper, got %d", fixture.resets)
	}
}
