package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

// ErrNoRoute is returned when no adapter is registered for a subscriber's platform.
var ErrNoRoute = errors.New("no delivery adapter for platform")

// Router picks the chat adapter matching the subscriber's platform. Mirrors receive a
// copy of every event; their failures are logged and never reach the caller.
type Router struct {
	routes  map[subscribers.Platform]Deliverer
	mirrors []Deliverer
	logger  *slog.Logger
}

// NewRouter returns an empty router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{routes: map[subscribers.Platform]Deliverer{}, logger: logger}
}

// Register binds a platform to its adapter.
func (r *Router) Register(platform subscribers.Platform, d Deliverer) {
	if d != nil {
		r.routes[platform] = d
	}
}

// Mirror adds a sink that sees every event.
func (r *Router) Mirror(d Deliverer) {
	if d != nil {
		r.mirrors = append(r.mirrors, d)
	}
}

// Platforms lists platforms with a registered adapter.
func (r *Router) Platforms() []subscribers.Platform {
	out := make([]subscribers.Platform, 0, len(r.routes))
	for p := range r.routes {
		out = append(out, p)
	}
	return out
}

func (r *Router) Deliver(ctx context.Context, ev notifications.Event) error {
	for _, m := range r.mirrors {
		if err := m.Deliver(ctx, ev); err != nil {
			logging.Warn(logging.FromContext(ctx, r.logger), "event mirror failed",
				slog.String(logging.FieldKind, string(ev.Kind)),
				"error", err,
			)
		}
	}

	d, ok := r.routes[ev.Subscriber.Platform]
	if !ok {
		return Transient(fmt.Errorf("%w: %s", ErrNoRoute, ev.Subscriber.Platform))
	}
	return d.Deliver(ctx, ev)
}
