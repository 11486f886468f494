package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

// ErrNotFound is returned when a chat has never interacted with the bot.
var ErrNotFound = errors.New("subscriber not found")

const selectColumns = `platform, chat_id, status, team_name, view_embed, news`

// SQLite stores subscribers in a SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string, logger *slog.Logger) (*SQLite, error) {
	db, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Close releases the database.
func (r *SQLite) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (subscribers.Subscriber, error) {
	var (
		s         subscribers.Subscriber
		platform  string
		status    string
		viewEmbed int
		news      string
	)
	if err := row.Scan(&platform, &s.ChatID, &status, &s.Team, &viewEmbed, &news); err != nil {
		return subscribers.Subscriber{}, err
	}
	s.Platform = subscribers.Platform(platform)
	s.Status = subscribers.Status(status)
	s.ViewEmbed = viewEmbed != 0
	s.OptIns = decodeNews(news)
	return s, nil
}

func decodeNews(raw string) subscribers.OptIns {
	if raw == "" {
		return subscribers.NewOptIns()
	}
	return subscribers.OptInsFromNames(strings.Split(raw, ","))
}

func encodeNews(o subscribers.OptIns) string {
	return strings.Join(subscribers.KindNames(o.List()), ",")
}

// ListSubscribers returns every subscriber.
func (r *SQLite) ListSubscribers(ctx context.Context) ([]subscribers.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM subscribers ORDER BY platform, chat_id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []subscribers.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RemoveSubscriber deletes a subscriber. Removing an unknown key is not an error.
func (r *SQLite) RemoveSubscriber(ctx context.Context, key subscribers.Key) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE platform = ? AND chat_id = ?`, string(key.Platform), key.ChatID); err != nil {
		return fmt.Errorf("remove subscriber %s: %w", key, err)
	}
	return nil
}

// Ensure returns the subscriber for key, registering it with defaults on first contact.
func (r *SQLite) Ensure(ctx context.Context, key subscribers.Key) (subscribers.Subscriber, bool, error) {
	fresh := subscribers.New(key.Platform, key.ChatID)
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (platform, chat_id, status, news) VALUES (?, ?, ?, ?)`,
		string(key.Platform), key.ChatID, string(fresh.Status), encodeNews(fresh.OptIns),
	)
	if err != nil {
		return subscribers.Subscriber{}, false, fmt.Errorf("ensure subscriber %s: %w", key, err)
	}
	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}
	s, err := r.Get(ctx, key)
	return s, created, err
}

// Get loads one subscriber.
func (r *SQLite) Get(ctx context.Context, key subscribers.Key) (subscribers.Subscriber, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM subscribers WHERE platform = ? AND chat_id = ?`, string(key.Platform), key.ChatID)
	s, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return subscribers.Subscriber{}, ErrNotFound
	}
	if err != nil {
		return subscribers.Subscriber{}, fmt.Errorf("get subscriber %s: %w", key, err)
	}
	return s, nil
}

// SetTeam sets the followed team; an empty name clears it.
func (r *SQLite) SetTeam(ctx context.Context, key subscribers.Key, team string) error {
	return r.update(ctx, key, `team_name = ?`, team)
}

// SetStatus stores the conversational state.
func (r *SQLite) SetStatus(ctx context.Context, key subscribers.Key, status subscribers.Status) error {
	return r.update(ctx, key, `status = ?`, string(status))
}

// SetViewEmbed stores the rendering preference.
func (r *SQLite) SetViewEmbed(ctx context.Context, key subscribers.Key, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return r.update(ctx, key, `view_embed = ?`, v)
}

// ToggleOptIn flips one notification kind and returns whether it is now enabled.
func (r *SQLite) ToggleOptIn(ctx context.Context, key subscribers.Key, kind subscribers.Kind) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var news string
	err = tx.QueryRowContext(ctx, `SELECT news FROM subscribers WHERE platform = ? AND chat_id = ?`, string(key.Platform), key.ChatID).Scan(&news)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read opt-ins %s: %w", key, err)
	}

	optIns := decodeNews(news)
	on := optIns.Toggle(kind)
	if _, err := tx.ExecContext(ctx, `UPDATE subscribers SET news = ? WHERE platform = ? AND chat_id = ?`, encodeNews(optIns), string(key.Platform), key.ChatID); err != nil {
		return false, fmt.Errorf("write opt-ins %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}
	return on, nil
}

// Count returns the number of subscribers per platform.
func (r *SQLite) Count(ctx context.Context) (map[subscribers.Platform]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT platform, COUNT(*) FROM subscribers GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	defer rows.Close()

	out := map[subscribers.Platform]int{}
	for rows.Next() {
		var (
			platform string
			n        int
		)
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[subscribers.Platform(platform)] = n
	}
	return out, rows.Err()
}

func (r *SQLite) update(ctx context.Context, key subscribers.Key, set string, value any) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscribers SET `+set+` WHERE platform = ? AND chat_id = ?`, value, string(key.Platform), key.ChatID)
	if err != nil {
		return fmt.Errorf("update subscriber %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
