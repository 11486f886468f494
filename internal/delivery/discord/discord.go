package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/preston-bernstein/ranking-bot/internal/bot"
	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

const (
	commandPrefix = "!"
	embedColor    = 0x2ecc71
	intents       = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
)

// ErrNotConnected is returned by Listen when the adapter has no gateway session.
var ErrNotConnected = errors.New("discord gateway session not configured")

// Session is the REST surface of a discordgo session used for sending.
type Session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Handler answers inbound chat requests.
type Handler interface {
	Handle(ctx context.Context, req bot.Request) bot.Reply
}

// Submitter queues inbound work without blocking.
type Submitter interface {
	Submit(job func()) bool
}

// Adapter delivers events to Discord channels. Subscribers are keyed by channel id;
// support requests are addressed to admin user ids and go out as direct messages.
type Adapter struct {
	session Session
	gateway *discordgo.Session
	logger  *slog.Logger
}

// New wraps a REST session. Listen is unavailable on adapters built this way.
func New(session Session, logger *slog.Logger) *Adapter {
	return &Adapter{session: session, logger: logger}
}

// Connect creates a bot session for token. The gateway is opened by Listen.
func Connect(token string, logger *slog.Logger) (*Adapter, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = intents
	return &Adapter{session: s, gateway: s, logger: logger}, nil
}

// Deliver posts ev to the subscriber's channel.
func (a *Adapter) Deliver(ctx context.Context, ev notifications.Event) error {
	if err := ctx.Err(); err != nil {
		return delivery.Transient(err)
	}
	channelID := ev.Subscriber.ChatID
	if ev.Kind == notifications.KindSupport {
		ch, err := a.session.UserChannelCreate(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return classify(err)
		}
		channelID = ch.ID
	}
	if _, err := a.session.ChannelMessageSend(channelID, delivery.Text(ev), discordgo.WithContext(ctx)); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps REST failures onto delivery kinds. Missing access (403) and unknown
// channels (404) end the subscription.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden, http.StatusNotFound:
			return delivery.Permanent(err)
		}
	}
	return delivery.Transient(err)
}

// Listen opens the gateway and answers messages until ctx ends.
func (a *Adapter) Listen(ctx context.Context, h Handler, pool Submitter) error {
	if a.gateway == nil {
		return ErrNotConnected
	}
	remove := a.gateway.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		self := ""
		if s.State != nil && s.State.User != nil {
			self = s.State.User.ID
		}
		a.onMessage(ctx, self, m, h, pool)
	})
	defer remove()

	if err := a.gateway.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	logging.Info(a.logger, "discord listener started")
	<-ctx.Done()
	logging.Info(a.logger, "discord listener stopped")
	return nil
}

// Close shuts the gateway connection.
func (a *Adapter) Close() error {
	if a.gateway == nil {
		return nil
	}
	return a.gateway.Close()
}

func (a *Adapter) onMessage(ctx context.Context, self string, m *discordgo.MessageCreate, h Handler, pool Submitter) {
	req, ok := toRequest(self, m)
	if !ok {
		return
	}
	channelID := m.ChannelID
	job := func() {
		a.reply(ctx, channelID, h.Handle(ctx, req))
	}
	if pool == nil {
		job()
		return
	}
	if !pool.Submit(job) {
		logging.Warn(a.logger, "inbound queue full", slog.String(logging.FieldSubscriber, channelID))
		a.reply(ctx, channelID, bot.BusyReply())
	}
}

// toRequest accepts prefixed commands anywhere and plain text only in direct messages,
// where a pending conversation may be waiting for it.
func toRequest(self string, m *discordgo.MessageCreate) (bot.Request, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || m.Author.ID == self {
		return bot.Request{}, false
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return bot.Request{}, false
	}
	if m.GuildID != "" && !strings.HasPrefix(text, commandPrefix) {
		return bot.Request{}, false
	}
	return bot.Request{
		Platform: subscribers.PlatformDiscord,
		ChatID:   m.ChannelID,
		SenderID: m.Author.ID,
		Name:     m.Author.Username,
		Text:     text,
	}, true
}

func (a *Adapter) reply(ctx context.Context, channelID string, reply bot.Reply) {
	if reply.Text == "" {
		return
	}
	var err error
	if reply.Embed {
		_, err = a.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
			Title:       reply.Title,
			Description: reply.Text,
			Color:       embedColor,
		}, discordgo.WithContext(ctx))
	} else {
		_, err = a.session.ChannelMessageSend(channelID, reply.Text, discordgo.WithContext(ctx))
	}
	if err != nil {
		logging.Warn(a.logger, "discord reply failed", slog.String(logging.FieldSubscriber, channelID), "error", err)
	}
}
