package store

import (
	"sync"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// Pair is the current snapshot together with the one it replaced.
type Pair struct {
	Current  *leaderboard.Snapshot
	Previous *leaderboard.Snapshot
}

// Empty reports whether nothing has been committed yet.
func (p Pair) Empty() bool {
	return p.Current == nil
}

// SnapshotStore holds the two most recent committed snapshots.
type SnapshotStore struct {
	mu       sync.RWMutex
	current  *leaderboard.Snapshot
	previous *leaderboard.Snapshot
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Commit makes s current and moves the old current to previous. A nil snapshot is ignored.
func (s *SnapshotStore) Commit(snap *leaderboard.Snapshot) Pair {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap != nil {
		s.previous = s.current
		s.current = snap
	}
	return Pair{Current: s.current, Previous: s.previous}
}

// Current returns the latest snapshot, or nil.
func (s *SnapshotStore) Current() *leaderboard.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Previous returns the snapshot before Current, or nil.
func (s *SnapshotStore) Previous() *leaderboard.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous
}

// Pair returns current and previous as they were at a single point in time.
func (s *SnapshotStore) Pair() Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Pair{Current: s.current, Previous: s.previous}
}
