package testutil

import (
	"context"
	"sync"

	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

// StubRegistry is an in-memory subscriber list that records removals.
type StubRegistry struct {
	mu      sync.Mutex
	subs    []subscribers.Subscriber
	Removed []subscribers.Key
	ListErr error
}

// NewStubRegistry seeds the registry with subs.
func NewStubRegistry(subs ...subscribers.Subscriber) *StubRegistry {
	return &StubRegistry{subs: append([]subscribers.Subscriber(nil), subs...)}
}

func (r *StubRegistry) ListSubscribers(ctx context.Context) ([]subscribers.Subscriber, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	return append([]subscribers.Subscriber(nil), r.subs...), nil
}

func (r *StubRegistry) RemoveSubscriber(ctx context.Context, key subscribers.Key) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Removed = append(r.Removed, key)
	kept := r.subs[:0]
	for _, s := range r.subs {
		if s.Key() != key {
			kept = append(kept, s)
		}
	}
	r.subs = kept
	return nil
}

// Removals returns a copy of the removed keys.
func (r *StubRegistry) Removals() []subscribers.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]subscribers.Key(nil), r.Removed...)
}

// Subscriber builds a subscriber following team with the given opt-ins.
func Subscriber(platform subscribers.Platform, chatID, team string, kinds ...subscribers.Kind) subscribers.Subscriber {
	s := subscribers.New(platform, chatID)
	s.Team = team
	if len(kinds) > 0 {
		s.OptIns = subscribers.NewOptIns(kinds...)
	}
	return s
}
