package engine

import (
	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/store"
)

// TeamDiff holds the nonzero changes of one team between two snapshots.
type TeamDiff struct {
	Team         string
	Rank         int
	PreviousRank int
	Scores       []notifications.QuestionDelta
}

// RankDelta is previous rank minus current rank; positive means the team moved up.
func (d TeamDiff) RankDelta() int {
	return d.PreviousRank - d.Rank
}

// Diff compares the pair's snapshots. Only teams in the current list are considered;
// a team or question missing from the previous snapshot has no delta. With no previous
// snapshot there is nothing to compare and the result is nil.
func Diff(pair store.Pair) []TeamDiff {
	cur, prev := pair.Current, pair.Previous
	if cur == nil || prev == nil {
		return nil
	}

	questions := cur.Questions()
	var out []TeamDiff
	for _, st := range cur.Standings() {
		old, err := prev.Standing(st.Team.Name)
		if err != nil {
			continue
		}

		d := TeamDiff{Team: st.Team.Name, Rank: st.Rank, PreviousRank: old.Rank}
		for i, q := range questions {
			j, err := prev.QuestionIndex(q.Name)
			if err != nil {
				continue
			}
			before, now := old.Team.Scores[j], st.Team.Scores[i]
			if now == before {
				continue
			}
			d.Scores = append(d.Scores, notifications.QuestionDelta{
				Question: q.Name,
				Previous: before,
				Current:  now,
				MaxScore: q.MaxScore,
			})
		}

		if d.RankDelta() == 0 && len(d.Scores) == 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}
