package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/preston-bernstein/ranking-bot/internal/bot"
	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

const updateTimeout = 60

// API is the part of the Bot API client the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler answers inbound chat requests.
type Handler interface {
	Handle(ctx context.Context, req bot.Request) bot.Reply
}

// Submitter queues inbound work without blocking.
type Submitter interface {
	Submit(job func()) bool
}

// Adapter delivers events to Telegram chats and feeds inbound messages to a Handler.
type Adapter struct {
	api    API
	logger *slog.Logger
}

// New wraps an API client.
func New(api API, logger *slog.Logger) *Adapter {
	return &Adapter{api: api, logger: logger}
}

// Connect authenticates with token and returns a ready adapter.
func Connect(token string, logger *slog.Logger) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	logging.Info(logger, "telegram bot authorized", "username", api.Self.UserName)
	return New(api, logger), nil
}

// Deliver sends ev as a text message to the subscriber's chat.
func (a *Adapter) Deliver(ctx context.Context, ev notifications.Event) error {
	if err := ctx.Err(); err != nil {
		return delivery.Transient(err)
	}
	chatID, err := strconv.ParseInt(ev.Subscriber.ChatID, 10, 64)
	if err != nil {
		return delivery.Permanent(fmt.Errorf("telegram chat id %q: %w", ev.Subscriber.ChatID, err))
	}
	return a.send(chatID, delivery.Text(ev))
}

func (a *Adapter) send(chatID int64, text string) error {
	if _, err := a.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps Bot API failures onto delivery kinds. A blocked bot (403) and a
// deleted chat (400 chat not found) end the subscription.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && isGone(apiErr.Code, apiErr.Message) {
		return delivery.Permanent(err)
	}
	var valErr tgbotapi.Error
	if errors.As(err, &valErr) && isGone(valErr.Code, valErr.Message) {
		return delivery.Permanent(err)
	}
	return delivery.Transient(err)
}

func isGone(code int, message string) bool {
	switch code {
	case http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(message), "chat not found")
	}
	return false
}

// Listen consumes updates until ctx ends. Each message is answered on the pool; when
// the pool is saturated the sender gets a busy reply instead.
func (a *Adapter) Listen(ctx context.Context, h Handler, pool Submitter) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeout
	updates := a.api.GetUpdatesChan(cfg)
	defer a.api.StopReceivingUpdates()

	logging.Info(a.logger, "telegram listener started")
	for {
		select {
		case <-ctx.Done():
			logging.Info(a.logger, "telegram listener stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			a.dispatch(ctx, upd, h, pool)
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, upd tgbotapi.Update, h Handler, pool Submitter) {
	req, ok := toRequest(upd)
	if !ok {
		return
	}
	chatID := upd.Message.Chat.ID
	job := func() {
		reply := h.Handle(ctx, req)
		a.reply(chatID, reply)
	}
	if pool == nil {
		job()
		return
	}
	if !pool.Submit(job) {
		logging.Warn(a.logger, "inbound queue full", slog.String(logging.FieldSubscriber, req.ChatID))
		a.reply(chatID, bot.BusyReply())
	}
}

func (a *Adapter) reply(chatID int64, reply bot.Reply) {
	if reply.Text == "" {
		return
	}
	if err := a.send(chatID, reply.Text); err != nil {
		logging.Warn(a.logger, "telegram reply failed",
			slog.String(logging.FieldSubscriber, strconv.FormatInt(chatID, 10)),
			"error", err,
		)
	}
}

func toRequest(upd tgbotapi.Update) (bot.Request, bool) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Request{}, false
	}
	req := bot.Request{
		Platform: subscribers.PlatformTelegram,
		ChatID:   strconv.FormatInt(msg.Chat.ID, 10),
		Text:     msg.Text,
	}
	if msg.From != nil {
		req.SenderID = strconv.FormatInt(msg.From.ID, 10)
		req.Name = msg.From.FirstName
		if req.Name == "" {
			req.Name = msg.From.UserName
		}
	}
	return req, true
}
