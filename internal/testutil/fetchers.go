package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// FetchResult is one scripted response of a StubFetcher.
type FetchResult struct {
	Snapshot *leaderboard.Snapshot
	Err      error
}

// StubFetcher replays scripted results in order and repeats the last one.
type StubFetcher struct {
	mu      sync.Mutex
	Results []FetchResult
	Calls   atomic.Int32
	// Block, when set, makes each fetch wait until the channel is closed or ctx ends.
	Block chan struct{}
	// Started receives a value when a fetch begins, if set.
	Started chan struct{}
	next    int
}

// NewStubFetcher builds a fetcher returning results in order.
func NewStubFetcher(results ...FetchResult) *StubFetcher {
	return &StubFetcher{Results: results}
}

// Push appends another scripted result.
func (s *StubFetcher) Push(r FetchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results = append(s.Results, r)
}

func (s *StubFetcher) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	s.Calls.Add(1)
	if s.Started != nil {
		select {
		case s.Started <- struct{}{}:
		default:
		}
	}
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Results) == 0 {
		return nil, nil
	}
	idx := s.next
	if idx >= len(s.Results) {
		idx = len(s.Results) - 1
	} else {
		s.next++
	}
	r := s.Results[idx]
	return r.Snapshot, r.Err
}
