package ois

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
)

// Config controls how the client reaches the ranking server.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client reads the live board from a CMS-style ranking web server.
type Client struct {
	baseURL    string
	httpClient httpDoer
	now        func() time.Time
}

// NewClient constructs a ranking client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		now:        time.Now,
	}
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return sourceName
}

// FetchSnapshot loads teams, users, tasks and scores and builds one snapshot. The four
// requests run concurrently and any failure discards the whole poll.
func (c *Client) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	var (
		users  ordered[userPayload]
		tasks  ordered[taskPayload]
		scores scoresPayload
		teams  teamsPayload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, pathTeams, func(r io.Reader) error {
			return json.NewDecoder(r).Decode(&teams)
		})
	})
	g.Go(func() error {
		return c.get(gctx, pathUsers, func(r io.Reader) error {
			var err error
			users, err = decodeOrderedUsers(r)
			return err
		})
	})
	g.Go(func() error {
		return c.get(gctx, pathTasks, func(r io.Reader) error {
			var err error
			tasks, err = decodeOrderedTasks(r)
			return err
		})
	})
	g.Go(func() error {
		return c.get(gctx, pathScores, func(r io.Reader) error {
			return json.NewDecoder(r).Decode(&scores)
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(users.keys) == 0 {
		return nil, &providers.FetchError{Source: sourceName, Endpoint: pathUsers, Err: providers.ErrNoEventRunning}
	}
	return mapSnapshot(users, tasks, scores, c.now()), nil
}

func (c *Client) get(ctx context.Context, path string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &providers.FetchError{Source: sourceName, Endpoint: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &providers.FetchError{Source: sourceName, Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		fe := &providers.FetchError{
			Source:     sourceName,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
		if resp.StatusCode == http.StatusNotFound {
			fe.Err = providers.ErrNoEventRunning
		}
		return fe
	}

	if err := decode(resp.Body); err != nil {
		return &providers.FetchError{Source: sourceName, Endpoint: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
