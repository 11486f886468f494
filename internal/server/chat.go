package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/ranking-bot/internal/bot"
	"github.com/preston-bernstein/ranking-bot/internal/config"
	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/delivery/amqp"
	"github.com/preston-bernstein/ranking-bot/internal/delivery/discord"
	"github.com/preston-bernstein/ranking-bot/internal/delivery/telegram"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

// chatListener is one inbound adapter loop. run blocks until ctx ends.
type chatListener struct {
	name string
	run  func(ctx context.Context, h *bot.Handler, pool *bot.Pool) error
}

type closer struct {
	name  string
	close func() error
}

// chatWiring is everything buildChat connected.
type chatWiring struct {
	router    *delivery.Router
	listeners []chatListener
	closers   []closer
	admins    map[subscribers.Platform][]string
}

// buildChat connects the configured chat platforms and the optional event stream.
// Platforms without a token are skipped.
func buildChat(cfg config.Config, logger *slog.Logger) (*chatWiring, error) {
	w := &chatWiring{
		router: delivery.NewRouter(logger),
		admins: map[subscribers.Platform][]string{},
	}

	if cfg.Telegram.Enabled() {
		tg, err := telegram.Connect(cfg.Telegram.Token, logger)
		if err != nil {
			return nil, w.fail(err, logger)
		}
		w.router.Register(subscribers.PlatformTelegram, tg)
		w.admins[subscribers.PlatformTelegram] = cfg.Telegram.Admins
		w.listeners = append(w.listeners, chatListener{
			name: string(subscribers.PlatformTelegram),
			run: func(ctx context.Context, h *bot.Handler, pool *bot.Pool) error {
				tg.Listen(ctx, h, pool)
				return nil
			},
		})
	}

	if cfg.Discord.Enabled() {
		dc, err := discord.Connect(cfg.Discord.Token, logger)
		if err != nil {
			return nil, w.fail(err, logger)
		}
		w.router.Register(subscribers.PlatformDiscord, dc)
		w.admins[subscribers.PlatformDiscord] = cfg.Discord.Admins
		w.listeners = append(w.listeners, chatListener{
			name: string(subscribers.PlatformDiscord),
			run: func(ctx context.Context, h *bot.Handler, pool *bot.Pool) error {
				return dc.Listen(ctx, h, pool)
			},
		})
		w.closers = append(w.closers, closer{name: "discord", close: dc.Close})
	}

	if cfg.AMQP.Enabled() {
		pub, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return nil, w.fail(err, logger)
		}
		w.router.Mirror(pub)
		w.closers = append(w.closers, closer{name: "amqp", close: pub.Close})
	}

	if len(w.router.Platforms()) == 0 {
		logging.Warn(logger, "no chat platform configured, notifications will be dropped")
	}
	return w, nil
}

func (w *chatWiring) fail(err error, logger *slog.Logger) error {
	closeAll(w.closers, logger)
	return fmt.Errorf("chat wiring: %w", err)
}

// closeAll releases resources in reverse order of acquisition.
func closeAll(closers []closer, logger *slog.Logger) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.close(); err != nil {
			logging.Warn(logger, "close failed", slog.String("component", c.name), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}
