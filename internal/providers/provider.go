package providers

import (
	"context"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// Fetcher retrieves the current leaderboard. Any returned error means no snapshot was
// produced for this poll and the round is treated as not running.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (*leaderboard.Snapshot, error)

func (f FetcherFunc) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	return f(ctx)
}
