package notifications

import "github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"

// EventKind classifies a notification event.
type EventKind string

const (
	KindRoundStarted  EventKind = "round_started"
	KindRankChanged   EventKind = "rank_changed"
	KindPointsChanged EventKind = "points_changed"
	KindBroadcast     EventKind = "broadcast"
	// KindSupport carries a user's help request to an admin.
	KindSupport       EventKind = "support_request"
)

// QuestionDelta is a per-question score change for one team.
type QuestionDelta struct {
	Question string  `json:"question"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	MaxScore float64 `json:"maxScore"`
}

// Delta returns Current - Previous.
func (d QuestionDelta) Delta() float64 {
	return d.Current - d.Previous
}

// Event is a notification addressed to one subscriber.
type Event struct {
	Kind         EventKind              `json:"kind"`
	Subscriber   subscribers.Subscriber `json:"subscriber"`
	Team         string                 `json:"team,omitempty"`
	Rank         int                    `json:"rank,omitempty"`
	PreviousRank int                    `json:"previousRank,omitempty"`
	Scores       []QuestionDelta        `json:"scores,omitempty"`
	Text         string                 `json:"text,omitempty"`
}

// RankDelta is positive when the team moved up.
func (e Event) RankDelta() int {
	return e.PreviousRank - e.Rank
}

// Rose reports an improvement in rank.
func (e Event) Rose() bool {
	return e.RankDelta() > 0
}
