package testutil

import (
	"context"
	"sync"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

// RecordingDeliverer captures delivered events and fails for configured subscribers.
type RecordingDeliverer struct {
	mu     sync.Mutex
	events []notifications.Event
	Errors map[subscribers.Key]error
}

func (d *RecordingDeliverer) Deliver(ctx context.Context, ev notifications.Event) error {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.Errors[ev.Subscriber.Key()]; ok {
		return err
	}
	d.events = append(d.events, ev)
	return nil
}

// Events returns a copy of delivered events.
func (d *RecordingDeliverer) Events() []notifications.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifications.Event(nil), d.events...)
}

// Count returns delivered events of kind.
func (d *RecordingDeliverer) Count(kind notifications.EventKind) int {
	n := 0
	for _, ev := range d.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
