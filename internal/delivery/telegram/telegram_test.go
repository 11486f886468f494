package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/preston-bernstein/ranking-bot/internal/bot"
	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	err     error
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, req bot.Request) bot.Reply {
	return bot.Reply{Text: req.Name + ":" + req.SenderID + ":" + req.Text}
}

type fullPool struct{}

func (fullPool) Submit(func()) bool { return false }

func event(chatID string) notifications.Event {
	return notifications.Event{
		Kind:       notifications.KindBroadcast,
		Subscriber: subscribers.Subscriber{Platform: subscribers.PlatformTelegram, ChatID: chatID},
		Text:       "hello",
	}
}

func TestDeliverSendsText(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, nil)
	if err := a.Deliver(context.Background(), event("42")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := api.messages()
	if len(sent) != 1 || sent[0].ChatID != 42 || sent[0].Text != "hello" {
		t.Fatalf("unexpected messages %+v", sent)
	}
}

func TestDeliverClassifiesErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"blocked", &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, true},
		{"chat gone", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, true},
		{"bad request", &tgbotapi.Error{Code: 400, Message: "Bad Request: message is too long"}, false},
		{"rate limited", &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		a := New(&fakeAPI{err: tc.err}, nil)
		err := a.Deliver(context.Background(), event("1"))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if delivery.IsPermanent(err) != tc.permanent {
			t.Fatalf("%s: permanent=%v, want %v", tc.name, delivery.IsPermanent(err), tc.permanent)
		}
	}
}

func TestDeliverRejectsInvalidChatID(t *testing.T) {
	a := New(&fakeAPI{}, nil)
	if err := a.Deliver(context.Background(), event("not-a-number")); !delivery.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestDeliverHonoursCancelledContext(t *testing.T) {
	api := &fakeAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(api, nil).Deliver(ctx, event("1")); err == nil || delivery.IsPermanent(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if len(api.messages()) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func update(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 7},
		From: &tgbotapi.User{ID: 9, FirstName: "Ada"},
	}}
}

func TestListenAnswersMessages(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 2)}
	a := New(api, nil)
	api.updates <- update("/team")
	api.updates <- tgbotapi.Update{}
	close(api.updates)

	a.Listen(context.Background(), echoHandler{}, nil)

	sent := api.messages()
	if len(sent) != 1 || sent[0].ChatID != 7 || sent[0].Text != "Ada:9:/team" {
		t.Fatalf("unexpected replies %+v", sent)
	}
	if !api.stopped {
		t.Fatalf("expected update polling to stop")
	}
}

func TestListenRepliesBusyWhenPoolFull(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 1)}
	api.updates <- update("/leaderboard")
	close(api.updates)

	New(api, nil).Listen(context.Background(), echoHandler{}, fullPool{})

	sent := api.messages()
	if len(sent) != 1 || sent[0].Text != bot.BusyReply().Text {
		t.Fatalf("expected busy reply, got %+v", sent)
	}
}

func TestListenStopsOnContext(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(api, nil).Listen(ctx, echoHandler{}, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("listener did not stop")
	}
}
