package ois

import (
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// mapQuestions keeps document order; the snapshot sorts stably by Order, so tasks
// sharing an order value stay in the order the source listed them.
func mapQuestions(tasks ordered[taskPayload]) []leaderboard.Question {
	out := make([]leaderboard.Question, 0, len(tasks.keys))
	for _, key := range tasks.keys {
		t := tasks.items[key]
		out = append(out, leaderboard.Question{
			Name:     key,
			Order:    t.Order,
			MaxScore: t.MaxScore,
		})
	}
	return out
}

func mapSnapshot(users ordered[userPayload], tasks ordered[taskPayload], scores scoresPayload, fetchedAt time.Time) *leaderboard.Snapshot {
	teams := make([]leaderboard.TeamInput, 0, len(users.keys))
	for _, name := range users.keys {
		teams = append(teams, leaderboard.TeamInput{Name: name, Scores: scores[name]})
	}
	return leaderboard.NewSnapshot(mapQuestions(tasks), teams, fetchedAt)
}
