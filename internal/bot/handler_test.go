package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/testutil"
)

type memSubs struct {
	mu   sync.Mutex
	subs map[subscribers.Key]subscribers.Subscriber
	err  error
}

func newMemSubs() *memSubs {
	return &memSubs{subs: map[subscribers.Key]subscribers.Subscriber{}}
}

func (m *memSubs) Ensure(ctx context.Context, key subscribers.Key) (subscribers.Subscriber, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return subscribers.Subscriber{}, false, m.err
	}
	if s, ok := m.subs[key]; ok {
		s.OptIns = s.OptIns.Clone()
		return s, false, nil
	}
	s := subscribers.New(key.Platform, key.ChatID)
	m.subs[key] = s
	return s, true, nil
}

func (m *memSubs) ListSubscribers(ctx context.Context) ([]subscribers.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]subscribers.Subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSubs) mutate(key subscribers.Key, fn func(*subscribers.Subscriber)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[key]
	if !ok {
		return errors.New("not found")
	}
	fn(&s)
	m.subs[key] = s
	return nil
}

func (m *memSubs) SetTeam(ctx context.Context, key subscribers.Key, team string) error {
	return m.mutate(key, func(s *subscribers.Subscriber) { s.Team = team })
}

func (m *memSubs) SetStatus(ctx context.Context, key subscribers.Key, status subscribers.Status) error {
	return m.mutate(key, func(s *subscribers.Subscriber) { s.Status = status })
}

func (m *memSubs) ToggleOptIn(ctx context.Context, key subscribers.Key, kind subscribers.Kind) (bool, error) {
	var on bool
	err := m.mutate(key, func(s *subscribers.Subscriber) { on = s.OptIns.Toggle(kind) })
	return on, err
}

func (m *memSubs) SetViewEmbed(ctx context.Context, key subscribers.Key, on bool) error {
	return m.mutate(key, func(s *subscribers.Subscriber) { s.ViewEmbed = on })
}

func (m *memSubs) Count(ctx context.Context) (map[subscribers.Platform]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[subscribers.Platform]int{}
	for k := range m.subs {
		out[k.Platform]++
	}
	return out, nil
}

func (m *memSubs) get(key subscribers.Key) subscribers.Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[key]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, events []notifications.Event) delivery.Summary {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
	return delivery.Summary{Attempted: len(events), Delivered: len(events)}
}

type fixture struct {
	handler  *Handler
	subs     *memSubs
	engine   *engine.Engine
	fetcher  *testutil.StubFetcher
	notifier *recordingNotifier
	direct   *testutil.RecordingDeliverer
	source   *providers.Switch
}

func newFixture(t *testing.T, live bool) *fixture {
	t.Helper()
	rows := make([]testutil.Row, 0, 14)
	for i := 0; i < 14; i++ {
		rows = append(rows, testutil.Row{Team: fmt.Sprintf("Team %02d", i), Scores: []float64{float64(100 - i*5), float64(i)}})
	}
	snap := testutil.Board([]string{"hello", "somma"}, rows...)
	f := testutil.NewStubFetcher(testutil.FetchResult{Snapshot: snap})
	e := engine.New(f, nil, nil, nil)
	if live {
		if _, err := e.RunCycle(context.Background()); err != nil {
			t.Fatalf("seed cycle: %v", err)
		}
	}
	subs := newMemSubs()
	n := &recordingNotifier{}
	d := &testutil.RecordingDeliverer{}
	sw := providers.NewSwitch(f, f, false)
	h := NewHandler(Config{
		Subscribers: subs,
		Board:       e,
		Source:      sw,
		Notifier:    n,
		Direct:      d,
		Admins:      map[subscribers.Platform][]string{subscribers.PlatformTelegram: {"admin"}},
	})
	return &fixture{handler: h, subs: subs, engine: e, fetcher: f, notifier: n, direct: d, source: sw}
}

func (f *fixture) send(chat, text string) Reply {
	return f.handler.Handle(context.Background(), Request{
		Platform: subscribers.PlatformTelegram,
		ChatID:   chat,
		SenderID: chat,
		Name:     "Ada",
		Text:     text,
	})
}

func mustContain(t *testing.T, got Reply, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got.Text, w) {
			t.Fatalf("expected %q in reply %q", w, got.Text)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cmd, ok := parseCommand("/team@RankingBot  extra args ")
	if !ok || cmd.name != "team" || cmd.args != "extra args" {
		t.Fatalf("unexpected parse %+v", cmd)
	}
	if cmd, ok = parseCommand("!Leaderboard 2"); !ok || cmd.name != "leaderboard" || cmd.args != "2" {
		t.Fatalf("unexpected discord parse %+v", cmd)
	}
	if _, ok = parseCommand("hello"); ok {
		t.Fatalf("plain text is not a command")
	}
}

func TestStartReflectsRound(t *testing.T) {
	f := newFixture(t, false)
	mustContain(t, f.send("1", "/start"), "Welcome back, Ada", "No competition")

	f = newFixture(t, true)
	mustContain(t, f.send("1", "/start"), "round has started")
}

func TestTeamFlow(t *testing.T) {
	f := newFixture(t, true)

	mustContain(t, f.send("1", "/team"), "haven't set your team")
	mustContain(t, f.send("1", "/setteam"), "case-sensitive")
	mustContain(t, f.send("1", "Team 03"), "Your team is Team 03")

	key := subscribers.Key{Platform: subscribers.PlatformTelegram, ChatID: "1"}
	if s := f.subs.get(key); s.Team != "Team 03" || s.Status != subscribers.StatusNormal {
		t.Fatalf("expected team stored and status reset, got %+v", s)
	}

	mustContain(t, f.send("1", "/team"), "Team: Team 03", "Rank: 4° / 14", "88 / 200 pts.")
	mustContain(t, f.send("1", "/partials"), "hello:", "85 pts.", "🟡", "🔴", "Total: 88 / 200")

	f.send("1", "/setteam team 03")
	mustContain(t, f.send("1", "/team"), "not on the leaderboard")

	mustContain(t, f.send("1", "/delteam"), "removed")
	if s := f.subs.get(key); s.Team != "" {
		t.Fatalf("expected team cleared")
	}
}

func TestTeamWithoutRound(t *testing.T) {
	f := newFixture(t, false)
	f.send("1", "/setteam Team 01")
	mustContain(t, f.send("1", "/team"), "Your team is Team 01", "once a round is running")
	mustContain(t, f.send("1", "/leaderboard"), "No round")
	mustContain(t, f.send("1", "/top"), "No round")
}

func TestCancelConversation(t *testing.T) {
	f := newFixture(t, true)
	f.send("1", "/setteam")
	mustContain(t, f.send("1", "/cancel"), "cancelled")
	mustContain(t, f.send("1", "/cancel"), "Nothing to cancel")
	if s := f.subs.get(subscribers.Key{Platform: subscribers.PlatformTelegram, ChatID: "1"}); s.Team != "" {
		t.Fatalf("cancel must not set a team")
	}
}

func TestLeaderboardPagingAndTop(t *testing.T) {
	f := newFixture(t, true)

	page1 := f.send("1", "/leaderboard")
	mustContain(t, page1, "page 1/2", "🥇 Team 00", "🔟 Team 09")
	if strings.Contains(page1.Text, "Team 10") {
		t.Fatalf("first page must hold 10 teams")
	}
	mustContain(t, f.send("1", "/leaderboard 2"), "page 2/2", "11° Team 10", "14° Team 13")
	mustContain(t, f.send("1", "/leaderboard 99"), "page 2/2")

	f.send("1", "/setteam Team 12")
	top := f.send("1", "/top")
	mustContain(t, top, "🥇 Team 00", "🥉 Team 02", "13° Team 12")
	if strings.Contains(top.Text, "Team 03") {
		t.Fatalf("top must list three teams plus own")
	}
}

func TestNewsToggles(t *testing.T) {
	f := newFixture(t, true)
	key := subscribers.Key{Platform: subscribers.PlatformTelegram, ChatID: "1"}

	mustContain(t, f.send("1", "/news"), "Round start: 🔔 on")
	mustContain(t, f.send("1", "/delnews points"), "Score change notifications disabled")
	if f.subs.get(key).Wants(subscribers.KindPointsChanged) {
		t.Fatalf("expected points disabled")
	}
	f.send("1", "/delnews points")
	if f.subs.get(key).Wants(subscribers.KindPointsChanged) {
		t.Fatalf("delnews twice must keep it disabled")
	}
	f.send("1", "/addnews points")
	if !f.subs.get(key).Wants(subscribers.KindPointsChanged) {
		t.Fatalf("expected points enabled")
	}
	mustContain(t, f.send("1", "/addnews nope"), "Usage")
}

func TestToggleViewMarksEmbedReplies(t *testing.T) {
	f := newFixture(t, true)
	if r := f.send("1", "/leaderboard"); r.Embed {
		t.Fatalf("embed must be off by default")
	}
	mustContain(t, f.send("1", "/toggleview"), "Embed view enabled")
	if r := f.send("1", "/leaderboard"); !r.Embed || r.Title == "" {
		t.Fatalf("expected embed reply with title, got %+v", r)
	}
	if r := f.send("1", "/start"); r.Embed {
		t.Fatalf("untitled replies stay plain")
	}
	mustContain(t, f.send("1", "/toggleview"), "Plain text view")
}

func TestSupportForwardsToAdmins(t *testing.T) {
	f := newFixture(t, true)
	mustContain(t, f.send("1", "/support"), "Support request")
	mustContain(t, f.send("1", "my submission is stuck"), "Request sent")

	events := f.direct.Events()
	if len(events) != 1 {
		t.Fatalf("expected one forwarded request, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != notifications.KindSupport || ev.Subscriber.ChatID != "admin" || !strings.Contains(ev.Text, "my submission is stuck") {
		t.Fatalf("unexpected forwarded event %+v", ev)
	}
	if len(f.notifier.events) != 0 {
		t.Fatalf("support forwards must bypass the notifier, got %d events", len(f.notifier.events))
	}
}

func TestSupportForwardFailureKeepsAdmin(t *testing.T) {
	f := newFixture(t, true)
	admin := subscribers.Key{Platform: subscribers.PlatformTelegram, ChatID: "admin"}
	f.direct.Errors = map[subscribers.Key]error{admin: delivery.Permanent(errors.New("bot was blocked by the user"))}

	f.send("1", "/support")
	mustContain(t, f.send("1", "help"), "Request sent")
	if len(f.notifier.events) != 0 {
		t.Fatalf("a failed forward must not go through the notifier")
	}
	if len(f.direct.Events()) != 0 {
		t.Fatalf("expected the blocked admin to receive nothing")
	}
}

func TestAdminCommands(t *testing.T) {
	f := newFixture(t, false)
	f.send("1", "/start")
	f.send("2", "/start")

	mustContain(t, f.send("1", "/users"), "didn't get that")
	mustContain(t, f.send("admin", "/users"), "Total users: 3", "telegram: 3")

	mustContain(t, f.send("admin", "/forcerefresh"), "refreshed", "14 teams")
	if !f.engine.RoundActive() {
		t.Fatalf("expected forced cycle to activate the round")
	}

	mustContain(t, f.send("admin", "/debug on"), "enabled")
	if f.source.Mode() != providers.ModeFixture {
		t.Fatalf("expected fixture mode")
	}
	mustContain(t, f.send("admin", "/debug off"), "disabled")
	mustContain(t, f.send("admin", "/debug maybe"), "Usage")

	mustContain(t, f.send("admin", "/broadcast server restart at 10"), "sent to 3 users")
	for _, ev := range f.notifier.events {
		if ev.Kind != notifications.KindBroadcast || ev.Text != "server restart at 10" {
			t.Fatalf("unexpected broadcast event %+v", ev)
		}
	}
}

func TestForceRefreshReportsNoRound(t *testing.T) {
	f := newFixture(t, false)
	f.fetcher.Results = []testutil.FetchResult{{Err: providers.ErrNoEventRunning}}
	mustContain(t, f.send("admin", "/forcerefresh"), "no round is running")
}

func TestRegistryFailureGivesGenericReply(t *testing.T) {
	f := newFixture(t, true)
	f.subs.err = errors.New("disk full")
	mustContain(t, f.send("1", "/team"), "Something went wrong")
}

func TestUnknownInput(t *testing.T) {
	f := newFixture(t, true)
	mustContain(t, f.send("1", "hello"), "didn't get that")
	mustContain(t, f.send("1", "/nope"), "/help")
	mustContain(t, f.send("1", "/help"), "/leaderboard [page]")
	r := f.handler.Handle(context.Background(), Request{Platform: subscribers.PlatformDiscord, ChatID: "c", Text: "!help"})
	mustContain(t, r, "!partials")
}

type ctxBoard struct {
	*engine.Engine
	ctxErr error
}

func (b *ctxBoard) ForceCycle(ctx context.Context) (engine.Report, error) {
	b.ctxErr = ctx.Err()
	return engine.Report{Teams: 3}, nil
}

func TestForceRefreshOutlivesCallerContext(t *testing.T) {
	f := newFixture(t, true)
	board := &ctxBoard{Engine: f.engine}
	h := NewHandler(Config{
		Subscribers: f.subs,
		Board:       board,
		Source:      f.source,
		Notifier:    f.notifier,
		Admins:      map[subscribers.Platform][]string{subscribers.PlatformTelegram: {"admin"}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := h.Handle(ctx, Request{Platform: subscribers.PlatformTelegram, ChatID: "admin", SenderID: "admin", Text: "/forcerefresh"})
	if board.ctxErr != nil {
		t.Fatalf("expected forced cycle detached from caller cancellation, got %v", board.ctxErr)
	}
	mustContain(t, r, "refreshed")
}
