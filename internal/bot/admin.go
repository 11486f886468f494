package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

// admin handles admin-only commands. ok is false when cmd is not an admin command.
func (h *Handler) admin(ctx context.Context, req Request, cmd command) (Reply, bool, error) {
	switch cmd.name {
	case "forcerefresh":
		return h.forceRefresh(ctx), true, nil
	case "debug":
		return h.debug(cmd.args), true, nil
	case "users":
		r, err := h.users(ctx)
		return r, true, err
	case "broadcast":
		r, err := h.broadcast(ctx, cmd.args)
		return r, true, err
	}
	return Reply{}, false, nil
}

func (h *Handler) forceRefresh(ctx context.Context) Reply {
	report, err := h.board.ForceCycle(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, engine.ErrBusy):
		return Reply{Text: "⏳ A refresh is already running, try again in a moment."}
	case report.FetchErr != nil:
		return Reply{Text: "⚠️ Refresh done, but no round is running."}
	case err != nil:
		return Reply{Text: "⚠️ Refresh failed: " + err.Error()}
	}
	return Reply{Text: fmt.Sprintf("✅ Leaderboard refreshed! (%d teams, %d notifications)", report.Teams, report.Events)}
}

func (h *Handler) debug(arg string) Reply {
	if h.source == nil {
		return Reply{Text: "Debug mode is not available."}
	}
	on := true
	switch strings.ToLower(arg) {
	case "", "on", "true", "1":
	case "off", "false", "0":
		on = false
	default:
		return Reply{Text: "Usage: debug <on|off>"}
	}
	h.source.UseFixture(on)
	logging.Info(h.logger, "leaderboard source switched", "mode", h.source.Mode())
	if on {
		return Reply{Text: "✅ Debug mode enabled!"}
	}
	return Reply{Text: "✅ Debug mode disabled!"}
}

func (h *Handler) users(ctx context.Context) (Reply, error) {
	counts, err := h.subs.Count(ctx)
	if err != nil {
		return Reply{}, err
	}
	platforms := make([]string, 0, len(counts))
	total := 0
	for p, n := range counts {
		platforms = append(platforms, fmt.Sprintf("%s: %d", p, n))
		total += n
	}
	sort.Strings(platforms)
	text := fmt.Sprintf("👤 Total users: %d", total)
	if len(platforms) > 0 {
		text += "\n" + strings.Join(platforms, "\n")
	}
	return Reply{Text: text}, nil
}

func (h *Handler) broadcast(ctx context.Context, text string) (Reply, error) {
	if text == "" {
		return Reply{Text: "Usage: broadcast <message>"}, nil
	}
	if h.notifier == nil {
		return Reply{Text: "Broadcast is not available."}, nil
	}
	subs, err := h.subs.ListSubscribers(ctx)
	if err != nil {
		return Reply{}, err
	}
	events := make([]notifications.Event, 0, len(subs))
	for _, s := range subs {
		events = append(events, notifications.Event{Kind: notifications.KindBroadcast, Subscriber: s, Text: text})
	}
	sum := h.notifier.Notify(ctx, events)
	return Reply{Text: fmt.Sprintf("📢 Message sent to %d users!", sum.Delivered)}, nil
}
