package delivery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

// Text renders an event as a plain chat message.
func Text(ev notifications.Event) string {
	switch ev.Kind {
	case notifications.KindRoundStarted:
		return "🔔 Round started!\nThe leaderboard is live, use " + CommandPrefix(ev.Subscriber.Platform) + "team to see how your team is doing.\nGood luck!"
	case notifications.KindRankChanged:
		return rankText(ev)
	case notifications.KindPointsChanged:
		return pointsText(ev)
	default:
		return ev.Text
	}
}

func rankText(ev notifications.Event) string {
	delta := ev.RankDelta()
	steps := abs(delta)
	noun := "positions"
	if steps == 1 {
		noun = "position"
	}
	if delta > 0 {
		return fmt.Sprintf("📈 Team %s rose %d %s!\n📊 Current rank: %d", ev.Team, steps, noun, ev.Rank)
	}
	return fmt.Sprintf("📉 Team %s dropped %d %s.\n📊 Current rank: %d", ev.Team, steps, noun, ev.Rank)
}

func pointsText(ev notifications.Event) string {
	var b strings.Builder
	b.WriteString("📊 New scores!\n")
	for _, d := range ev.Scores {
		delta := d.Delta()
		icon, sign := "🟢", "+"
		if delta < 0 {
			icon, sign = "🔴", ""
		}
		fmt.Fprintf(&b, "\n%s %s: %s/%s (%s%s)", icon, d.Question, Number(d.Current), Number(d.MaxScore), sign, Number(delta))
	}
	return b.String()
}

// CommandPrefix is the character that starts a bot command on the platform.
func CommandPrefix(p subscribers.Platform) string {
	if p == subscribers.PlatformDiscord {
		return "!"
	}
	return "/"
}

// Number prints a score without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
