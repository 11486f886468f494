package engine

import (
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

// RoundStarted addresses one round-start event to every subscriber opted into it.
func RoundStarted(subs []subscribers.Subscriber) []notifications.Event {
	var out []notifications.Event
	for _, s := range subs {
		if !s.Wants(subscribers.KindRoundStart) {
			continue
		}
		out = append(out, notifications.Event{Kind: notifications.KindRoundStarted, Subscriber: s})
	}
	return out
}

// Changes turns diffs into per-subscriber events. A nonzero rank delta yields one
// rank event per follower opted into rank changes; all score deltas of a team are
// folded into a single points event per follower opted into point changes.
func Changes(diffs []TeamDiff, subs []subscribers.Subscriber) []notifications.Event {
	if len(diffs) == 0 || len(subs) == 0 {
		return nil
	}

	followers := make(map[string][]subscribers.Subscriber)
	for _, s := range subs {
		if s.Team == "" {
			continue
		}
		followers[s.Team] = append(followers[s.Team], s)
	}

	var out []notifications.Event
	for _, d := range diffs {
		for _, s := range followers[d.Team] {
			if d.RankDelta() != 0 && s.Wants(subscribers.KindRankChanged) {
				out = append(out, notifications.Event{
					Kind:         notifications.KindRankChanged,
					Subscriber:   s,
					Team:         d.Team,
					Rank:         d.Rank,
					PreviousRank: d.PreviousRank,
				})
			}
			if len(d.Scores) > 0 && s.Wants(subscribers.KindPointsChanged) {
				out = append(out, notifications.Event{
					Kind:       notifications.KindPointsChanged,
					Subscriber: s,
					Team:       d.Team,
					Rank:       d.Rank,
					Scores:     append([]notifications.QuestionDelta(nil), d.Scores...),
				})
			}
		}
	}
	return out
}
