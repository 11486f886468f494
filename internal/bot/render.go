package bot

import (
	"fmt"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
)

const pageSize = 10

var rankIcons = map[int]string{
	1:  "🥇",
	2:  "🥈",
	3:  "🥉",
	4:  "4️⃣",
	5:  "5️⃣",
	6:  "6️⃣",
	7:  "7️⃣",
	8:  "8️⃣",
	9:  "9️⃣",
	10: "🔟",
}

// StatIcon buckets a question score relative to its cap.
func StatIcon(score, maxScore float64) string {
	if maxScore <= 0 {
		maxScore = leaderboard.DefaultMaxScore
	}
	pct := score / maxScore * 100
	switch {
	case pct < 30:
		return "🔴"
	case pct < 60:
		return "🟠"
	case pct < 90:
		return "🟡"
	case pct < 100:
		return "🟢"
	default:
		return "✅"
	}
}

// RankIcon returns a medal or number badge for the top ten, the ordinal otherwise.
func RankIcon(rank int) string {
	if icon, ok := rankIcons[rank]; ok {
		return icon
	}
	return fmt.Sprintf("%d°", rank)
}

func standingLine(st leaderboard.Standing) string {
	return fmt.Sprintf("%s %s (%s pts.)", RankIcon(st.Rank), st.Team.Name, delivery.Number(st.Total))
}

// Pages returns how many leaderboard pages a board of n teams needs.
func Pages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

func renderPage(standings []leaderboard.Standing, page int) string {
	pages := Pages(len(standings))
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Leaderboard (page %d/%d)\n", page, pages)
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(standings))
	for _, st := range standings[start:end] {
		b.WriteString("\n" + standingLine(st))
	}
	return b.String()
}

func renderTop(standings []leaderboard.Standing, own *leaderboard.Standing) string {
	var b strings.Builder
	b.WriteString("🏆 Top Teams\n")
	for _, st := range standings[:min(3, len(standings))] {
		b.WriteString("\n" + standingLine(st))
	}
	if own != nil {
		b.WriteString("\n\n" + standingLine(*own))
	}
	return b.String()
}

func renderTeam(snap *leaderboard.Snapshot, st leaderboard.Standing, prefix string) string {
	return fmt.Sprintf("👥 Team: %s\n\n📊 Rank: %d° / %d\n📈 Total Score: %s / %s pts.\n\nUse %spartials to see the score of each question.",
		st.Team.Name, st.Rank, snap.Len(), delivery.Number(st.Total), delivery.Number(snap.MaxTotal()), prefix)
}

func renderPartials(snap *leaderboard.Snapshot, st leaderboard.Standing) string {
	questions := snap.Questions()
	width := 0
	for _, q := range questions {
		width = max(width, len(q.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Team: %s\n\n", st.Team.Name)
	for i, q := range questions {
		score := st.Team.Scores[i]
		fmt.Fprintf(&b, "%s %-*s %s pts.\n", StatIcon(score, q.MaxScore), width+1, q.Name+":", delivery.Number(score))
	}
	fmt.Fprintf(&b, "\n📈 Total: %s / %s pts.", delivery.Number(st.Total), delivery.Number(snap.MaxTotal()))
	return b.String()
}
