package providers

import (
	"context"
	"sync/atomic"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// Source modes reported by Switch.Mode.
const (
	ModeLive    = "live"
	ModeFixture = "fixture"
)

type resetter interface {
	Reset()
}

// Switch routes fetches either to the live source or to a static fixture. Flipping it
// only changes where snapshots come from.
type Switch struct {
	live       Fetcher
	fixture    Fetcher
	useFixture atomic.Bool
}

// NewSwitch builds a Switch starting in the given mode.
func NewSwitch(live, fixture Fetcher, startWithFixture bool) *Switch {
	s := &Switch{live: live, fixture: fixture}
	s.useFixture.Store(startWithFixture)
	return s
}

// FetchSnapshot delegates to the active source.
func (s *Switch) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	target := s.live
	if s.useFixture.Load() {
		target = s.fixture
	}
	if target == nil {
		return nil, ErrProviderUnavailable
	}
	return target.FetchSnapshot(ctx)
}

// UseFixture selects the fixture (true) or the live source (false). Turning the fixture
// on rewinds it to its first frame. Returns the previous setting.
func (s *Switch) UseFixture(on bool) bool {
	prev := s.useFixture.Swap(on)
	if on && !prev {
		if r, ok := s.fixture.(resetter); ok {
			r.Reset()
		}
	}
	return prev
}

// Mode reports the active source.
func (s *Switch) Mode() string {
	if s.useFixture.Load() {
		return ModeFixture
	}
	return ModeLive
}
