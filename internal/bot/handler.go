package bot

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

// Subscribers is the registry surface the chat commands need.
type Subscribers interface {
	Ensure(ctx context.Context, key subscribers.Key) (subscribers.Subscriber, bool, error)
	ListSubscribers(ctx context.Context) ([]subscribers.Subscriber, error)
	SetTeam(ctx context.Context, key subscribers.Key, team string) error
	SetStatus(ctx context.Context, key subscribers.Key, status subscribers.Status) error
	ToggleOptIn(ctx context.Context, key subscribers.Key, kind subscribers.Kind) (bool, error)
	SetViewEmbed(ctx context.Context, key subscribers.Key, on bool) error
	Count(ctx context.Context) (map[subscribers.Platform]int, error)
}

// Board is the engine surface used for on-demand queries and the admin refresh.
type Board interface {
	RoundActive() bool
	Board() (*leaderboard.Snapshot, error)
	ForceCycle(ctx context.Context) (engine.Report, error)
}

// SourceToggle flips the leaderboard source between live and fixture data.
type SourceToggle interface {
	UseFixture(on bool) bool
	Mode() string
}

// Notifier delivers ad-hoc events such as broadcasts and support requests.
type Notifier interface {
	Notify(ctx context.Context, events []notifications.Event) delivery.Summary
}

// Request is one inbound chat message, already stripped of platform details.
type Request struct {
	Platform subscribers.Platform
	ChatID   string
	SenderID string
	Name     string
	Text     string
}

func (r Request) key() subscribers.Key {
	return subscribers.Key{Platform: r.Platform, ChatID: r.ChatID}
}

// Reply is the answer to a request. Embed asks adapters that support it for a card layout.
type Reply struct {
	Title string
	Text  string
	Embed bool
}

// Config wires a Handler.
type Config struct {
	Subscribers Subscribers
	Board       Board
	Source      SourceToggle
	Notifier    Notifier
	// Direct reaches admins without the registry bookkeeping the Notifier does.
	Direct      delivery.Deliverer
	Admins      map[subscribers.Platform][]string
	Logger      *slog.Logger
}

// Handler answers chat commands for every platform.
type Handler struct {
	subs     Subscribers
	board    Board
	source   SourceToggle
	notifier Notifier
	direct   delivery.Deliverer
	admins   map[subscribers.Platform][]string
	logger   *slog.Logger
}

// NewHandler builds a handler from cfg.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		subs:     cfg.Subscribers,
		board:    cfg.Board,
		source:   cfg.Source,
		notifier: cfg.Notifier,
		direct:   cfg.Direct,
		admins:   cfg.Admins,
		logger:   cfg.Logger,
	}
}

type command struct {
	name string
	args string
}

func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if text == "" || (text[0] != '/' && text[0] != '!') {
		return command{}, false
	}
	name, args, _ := strings.Cut(text[1:], " ")
	// Telegram appends the bot name in groups: /team@SomeBot.
	name, _, _ = strings.Cut(name, "@")
	return command{name: strings.ToLower(name), args: strings.TrimSpace(args)}, true
}

// IsAdmin reports whether the sender may run admin commands.
func (h *Handler) IsAdmin(req Request) bool {
	id := req.SenderID
	if id == "" {
		id = req.ChatID
	}
	return slices.Contains(h.admins[req.Platform], id)
}

// Handle answers one request. Registry failures are logged and turned into a generic reply.
func (h *Handler) Handle(ctx context.Context, req Request) Reply {
	logger := logging.FromContext(ctx, h.logger)
	if logger != nil {
		logger = logger.With(
			slog.String(logging.FieldPlatform, string(req.Platform)),
			slog.String(logging.FieldSubscriber, req.key().String()),
		)
	}

	sub, _, err := h.subs.Ensure(ctx, req.key())
	if err != nil {
		logging.Error(logger, "subscriber lookup failed", err)
		return Reply{Text: msgInternalError}
	}

	reply, err := h.route(ctx, sub, req)
	if err != nil {
		logging.Error(logger, "command failed", err, slog.String("text", req.Text))
		return Reply{Text: msgInternalError}
	}
	reply.Embed = reply.Embed && sub.ViewEmbed && reply.Title != ""
	return reply
}

func (h *Handler) route(ctx context.Context, sub subscribers.Subscriber, req Request) (Reply, error) {
	cmd, isCmd := parseCommand(req.Text)
	p := delivery.CommandPrefix(req.Platform)

	switch {
	case isCmd && cmd.name == "help":
		return Reply{Title: "Help", Text: helpText(p), Embed: true}, nil
	case isCmd && cmd.name == "about":
		return Reply{Title: "About", Text: aboutText, Embed: true}, nil
	}

	if sub.Status != subscribers.StatusNormal && sub.Status != "" {
		return h.continueConversation(ctx, sub, req, cmd, isCmd)
	}
	if !isCmd {
		return Reply{Text: "I didn't get that...\nNeed help? Send " + p + "help"}, nil
	}

	if h.IsAdmin(req) {
		if reply, ok, err := h.admin(ctx, req, cmd); ok || err != nil {
			return reply, err
		}
	}

	switch cmd.name {
	case "start":
		if cmd.args == "support" {
			return h.support(ctx, sub, p)
		}
		return h.start(req), nil
	case "team":
		return h.team(sub, p), nil
	case "partials":
		return h.partials(sub, p), nil
	case "leaderboard":
		return h.leaderboard(cmd.args), nil
	case "top":
		return h.top(sub), nil
	case "setteam":
		return h.setTeam(ctx, sub, cmd.args, p)
	case "delteam":
		if err := h.subs.SetTeam(ctx, sub.Key(), ""); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "❌ Your team has been removed."}, nil
	case "news", "settings":
		return newsReply(sub.OptIns, p), nil
	case "addnews":
		return h.setNews(ctx, sub, cmd.args, true, p)
	case "delnews":
		return h.setNews(ctx, sub, cmd.args, false, p)
	case "toggleview":
		if err := h.subs.SetViewEmbed(ctx, sub.Key(), !sub.ViewEmbed); err != nil {
			return Reply{}, err
		}
		if sub.ViewEmbed {
			return Reply{Text: "✅ Plain text view enabled."}, nil
		}
		return Reply{Text: "✅ Embed view enabled."}, nil
	case "cancel", "annulla":
		return Reply{Text: "😴 Nothing to cancel!"}, nil
	case "support":
		return h.support(ctx, sub, p)
	}
	return Reply{Text: "I didn't get that...\nNeed help? Send " + p + "help"}, nil
}

func (h *Handler) continueConversation(ctx context.Context, sub subscribers.Subscriber, req Request, cmd command, isCmd bool) (Reply, error) {
	key := sub.Key()
	if isCmd && (cmd.name == "cancel" || cmd.name == "annulla") {
		if err := h.subs.SetStatus(ctx, key, subscribers.StatusNormal); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Command cancelled!"}, nil
	}

	switch sub.Status {
	case subscribers.StatusChangingTeam:
		team := strings.TrimSpace(req.Text)
		if err := h.subs.SetTeam(ctx, key, team); err != nil {
			return Reply{}, err
		}
		if err := h.subs.SetStatus(ctx, key, subscribers.StatusNormal); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "✅ Your team is " + team + "!"}, nil

	case subscribers.StatusCallingSupport:
		if err := h.subs.SetStatus(ctx, key, subscribers.StatusNormal); err != nil {
			return Reply{}, err
		}
		h.forwardToAdmins(ctx, req)
		return Reply{Text: "Request sent.\nAn admin will get back to you as soon as possible."}, nil
	}

	if err := h.subs.SetStatus(ctx, key, subscribers.StatusNormal); err != nil {
		return Reply{}, err
	}
	sub.Status = subscribers.StatusNormal
	return h.route(ctx, sub, req)
}

func (h *Handler) forwardToAdmins(ctx context.Context, req Request) {
	admins := h.admins[req.Platform]
	if len(admins) == 0 || h.direct == nil {
		return
	}
	text := "🆘 Help request\nFrom: " + req.Name + " (" + req.key().String() + ")\n\n" + req.Text
	for _, id := range admins {
		ev := notifications.Event{
			Kind:       notifications.KindSupport,
			Subscriber: subscribers.Subscriber{Platform: req.Platform, ChatID: id},
			Text:       text,
		}
		if err := h.direct.Deliver(ctx, ev); err != nil {
			logging.Warn(h.logger, "support forward failed",
				slog.String(logging.FieldSubscriber, ev.Subscriber.Key().String()),
				slog.String(logging.FieldError, err.Error()),
			)
		}
	}
}

func (h *Handler) start(req Request) Reply {
	status := "🔴 No competition is running right now."
	if h.board.RoundActive() {
		status = "🟢 The round has started! What are you waiting for?"
	}
	name := req.Name
	if name == "" {
		name = "there"
	}
	return Reply{Text: "Welcome back, " + name + "!\n" + status + "\n\nWhat can I do for you? 😊"}
}

func (h *Handler) support(ctx context.Context, sub subscribers.Subscriber, p string) (Reply, error) {
	if err := h.subs.SetStatus(ctx, sub.Key(), subscribers.StatusCallingSupport); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "🆘 Support request\nIf you have a problem you cannot solve, write a message here and an admin will contact you as soon as possible.\n\nTo cancel, send " + p + "cancel."}, nil
}

// snapshotFor returns the live board, or a ready-made reply when it cannot be shown.
func (h *Handler) snapshotFor(sub subscribers.Subscriber, p string, needTeam bool) (*leaderboard.Snapshot, *Reply) {
	if needTeam && sub.Team == "" {
		return nil, &Reply{Text: "You haven't set your team yet! Use " + p + "setteam <name> to do it."}
	}
	snap, err := h.board.Board()
	if err != nil {
		if needTeam {
			return nil, &Reply{Text: "👥 Your team is " + sub.Team + ".\nI can show more once a round is running."}
		}
		return nil, &Reply{Text: msgNoRound}
	}
	return snap, nil
}

func (h *Handler) team(sub subscribers.Subscriber, p string) Reply {
	snap, reply := h.snapshotFor(sub, p, true)
	if reply != nil {
		return *reply
	}
	st, err := snap.Standing(sub.Team)
	if errors.Is(err, leaderboard.ErrTeamNotFound) {
		return teamMissingReply(p)
	}
	return Reply{Title: st.Team.Name, Text: renderTeam(snap, st, p), Embed: true}
}

func (h *Handler) partials(sub subscribers.Subscriber, p string) Reply {
	snap, reply := h.snapshotFor(sub, p, true)
	if reply != nil {
		return *reply
	}
	st, err := snap.Standing(sub.Team)
	if errors.Is(err, leaderboard.ErrTeamNotFound) {
		return teamMissingReply(p)
	}
	return Reply{Title: st.Team.Name, Text: renderPartials(snap, st), Embed: true}
}

func (h *Handler) leaderboard(args string) Reply {
	snap, err := h.board.Board()
	if err != nil {
		return Reply{Text: msgNoRound}
	}
	page := 1
	if args != "" {
		if n, ok := parsePage(args); ok {
			page = n
		}
	}
	return Reply{Title: "Leaderboard", Text: renderPage(snap.Standings(), page), Embed: true}
}

func (h *Handler) top(sub subscribers.Subscriber) Reply {
	snap, err := h.board.Board()
	if err != nil {
		return Reply{Text: msgNoRound}
	}
	var own *leaderboard.Standing
	if sub.Team != "" {
		if st, err := snap.Standing(sub.Team); err == nil {
			own = &st
		}
	}
	return Reply{Title: "Top Teams", Text: renderTop(snap.Standings(), own), Embed: true}
}

func (h *Handler) setTeam(ctx context.Context, sub subscribers.Subscriber, name, p string) (Reply, error) {
	if name == "" {
		if err := h.subs.SetStatus(ctx, sub.Key(), subscribers.StatusChangingTeam); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Send me the name of your team.\nWarning! Team names are case-sensitive, make sure you type it exactly.\n\nTo cancel, send " + p + "cancel."}, nil
	}
	if err := h.subs.SetTeam(ctx, sub.Key(), name); err != nil {
		return Reply{}, err
	}
	return Reply{Text: "✅ Your team is " + name + "!"}, nil
}

func (h *Handler) setNews(ctx context.Context, sub subscribers.Subscriber, arg string, enable bool, p string) (Reply, error) {
	kind, ok := subscribers.ParseKind(arg)
	if !ok {
		verb := "addnews"
		if !enable {
			verb = "delnews"
		}
		return Reply{Text: "Usage: " + p + verb + " <start|rank|points>"}, nil
	}
	if sub.Wants(kind) != enable {
		if _, err := h.subs.ToggleOptIn(ctx, sub.Key(), kind); err != nil {
			return Reply{}, err
		}
	}
	state := "enabled"
	if !enable {
		state = "disabled"
	}
	return Reply{Text: "🔔 " + kindLabel(kind) + " notifications " + state + "!"}, nil
}
