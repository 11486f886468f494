package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
	"github.com/preston-bernstein/ranking-bot/internal/testutil"
)

func events(subs ...subscribers.Subscriber) []notifications.Event {
	out := make([]notifications.Event, 0, len(subs))
	for _, s := range subs {
		out = append(out, notifications.Event{Kind: notifications.KindRankChanged, Subscriber: s})
	}
	return out
}

func TestFanoutIsolatesFailures(t *testing.T) {
	ok := subscribers.New(subscribers.PlatformTelegram, "ok")
	blocked := subscribers.New(subscribers.PlatformTelegram, "blocked")
	flaky := subscribers.New(subscribers.PlatformDiscord, "flaky")

	d := &testutil.RecordingDeliverer{Errors: map[subscribers.Key]error{
		blocked.Key(): Permanent(errors.New("bot was blocked")),
		flaky.Key():   Transient(errors.New("timeout")),
	}}
	reg := testutil.NewStubRegistry(ok, blocked, flaky)
	rec := metrics.NewRecorder()
	logger, buf := testutil.NewBufferLogger()

	evs := events(ok, blocked, flaky)
	// A second event for the blocked subscriber must not trigger a second removal.
	evs = append(evs, notifications.Event{Kind: notifications.KindPointsChanged, Subscriber: blocked})

	sum := NewFanout(d, reg, rec, logger, 2).Notify(context.Background(), evs)

	if sum.Attempted != 4 || sum.Delivered != 1 || sum.Transient != 1 || sum.Permanent != 2 || sum.Removed != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	removed := reg.Removals()
	if len(removed) != 1 || removed[0] != blocked.Key() {
		t.Fatalf("expected only blocked removed once, got %v", removed)
	}
	if got := rec.Removals("telegram"); got != 1 {
		t.Fatalf("expected removal metric, got %d", got)
	}
	if got := rec.Notifications("rank_changed", metrics.OutcomeTransient); got != 1 {
		t.Fatalf("expected transient metric, got %d", got)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected failures to be logged")
	}
}

func TestFanoutBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	d := DelivererFunc(func(ctx context.Context, ev notifications.Event) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	subs := make([]subscribers.Subscriber, 20)
	for i := range subs {
		subs[i] = subscribers.New(subscribers.PlatformTelegram, fmt.Sprint(i))
	}
	sum := NewFanout(d, nil, nil, nil, 3).Notify(context.Background(), events(subs...))
	if sum.Delivered != 20 {
		t.Fatalf("expected all delivered, got %+v", sum)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent deliveries, saw %d", peak.Load())
	}
}

func TestFanoutDefaults(t *testing.T) {
	f := NewFanout(&testutil.RecordingDeliverer{}, nil, nil, nil, 0)
	if f.workers != defaultWorkers {
		t.Fatalf("expected default workers, got %d", f.workers)
	}
	if sum := f.Notify(context.Background(), nil); sum.Attempted != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}
