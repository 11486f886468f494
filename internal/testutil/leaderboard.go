package testutil

import (
	"sort"
	"time"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

// FixedTime is the capture time used by snapshot helpers.
var FixedTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// Row is a team with scores listed in question order.
type Row struct {
	Team   string
	Scores []float64
}

// Board builds a snapshot with the given questions (ordered as listed) and team rows,
// keeping row order as the source order.
func Board(questions []string, rows ...Row) *leaderboard.Snapshot {
	qs := make([]leaderboard.Question, len(questions))
	for i, q := range questions {
		qs[i] = leaderboard.Question{Name: q, Order: i}
	}
	teams := make([]leaderboard.TeamInput, len(rows))
	for i, r := range rows {
		scores := make(map[string]float64, len(r.Scores))
		for j, s := range r.Scores {
			if j < len(questions) {
				scores[questions[j]] = s
			}
		}
		teams[i] = leaderboard.TeamInput{Name: r.Team, Scores: scores}
	}
	return leaderboard.NewSnapshot(qs, teams, FixedTime)
}

// Snapshot builds a single-question snapshot from totals. Teams are listed by name.
func Snapshot(totals map[string]float64) *leaderboard.Snapshot {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]Row, len(names))
	for i, name := range names {
		rows[i] = Row{Team: name, Scores: []float64{totals[name]}}
	}
	return Board([]string{"q1"}, rows...)
}
