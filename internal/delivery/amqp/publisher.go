package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

const (
	exchangeKind   = "topic"
	contentType    = "application/json"
	publishTimeout = 5 * time.Second
)

// Channel is the slice of an AMQP channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// message is the wire shape of a published event.
type message struct {
	Kind         notifications.EventKind       `json:"kind"`
	Platform     string                        `json:"platform"`
	ChatID       string                        `json:"chatId"`
	Team         string                        `json:"team,omitempty"`
	Rank         int                           `json:"rank,omitempty"`
	PreviousRank int                           `json:"previousRank,omitempty"`
	Scores       []notifications.QuestionDelta `json:"scores,omitempty"`
	Text         string                        `json:"text"`
	SentAt       time.Time                     `json:"sentAt"`
}

// Publisher mirrors notification events onto a topic exchange. Routing keys are
// <platform>.<kind>, so consumers can bind to e.g. "telegram.*" or "*.rank_changed".
type Publisher struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger
	now      func() time.Time
}

// NewPublisher declares exchange on ch and returns a publisher bound to it.
func NewPublisher(ch Channel, exchange string, logger *slog.Logger) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("amqp channel is required")
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger, now: time.Now}, nil
}

// Dial connects to url, opens a channel and declares exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	logging.Info(logger, "amqp publisher ready", "exchange", exchange)
	return p, nil
}

// RoutingKey returns the topic key for ev.
func RoutingKey(ev notifications.Event) string {
	return string(ev.Subscriber.Platform) + "." + string(ev.Kind)
}

// Deliver publishes ev. Every failure is transient: the broker being down never
// removes a chat subscriber.
func (p *Publisher) Deliver(ctx context.Context, ev notifications.Event) error {
	body, err := json.Marshal(message{
		Kind:         ev.Kind,
		Platform:     string(ev.Subscriber.Platform),
		ChatID:       ev.Subscriber.ChatID,
		Team:         ev.Team,
		Rank:         ev.Rank,
		PreviousRank: ev.PreviousRank,
		Scores:       ev.Scores,
		Text:         delivery.Text(ev),
		SentAt:       p.now().UTC(),
	})
	if err != nil {
		return delivery.Transient(fmt.Errorf("encode event: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return delivery.Transient(fmt.Errorf("publish %s: %w", RoutingKey(ev), err))
	}
	return nil
}

// Close releases the channel and, when dialled, the connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
