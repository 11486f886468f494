package bot

import (
	"strconv"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/domain/subscribers"
)

const (
	msgInternalError = "⚠️ Something went wrong, please try again later."
	msgNoRound       = "No round is currently running!"
	msgBusy          = "⏳ I'm a bit busy right now, please try again in a moment."
	aboutText        = "ℹ️ About this bot\nShows the leaderboard of the current round, follows a team for you and lets you know when a new round starts.\nDuring a round the leaderboard is refreshed every minute."
)

// BusyReply is sent by adapters when the inbound queue is full.
func BusyReply() Reply {
	return Reply{Text: msgBusy}
}

func helpText(p string) string {
	lines := []string{
		"Hi, need help? 👋🏻",
		"I can show the leaderboard of the running round and notify you when something changes for your team.",
		"",
		"Commands:",
		p + "start - Start the bot",
		p + "team - Show your team",
		p + "partials - Show the score of each question",
		p + "leaderboard [page] - Show the full leaderboard",
		p + "top - Show the top teams",
		p + "setteam <name> - Follow a team (case-sensitive)",
		p + "delteam - Stop following your team",
		p + "news - Show active notifications",
		p + "addnews <start|rank|points> - Enable a notification",
		p + "delnews <start|rank|points> - Disable a notification",
		p + "toggleview - Switch between plain and embed view",
		p + "about - About this bot",
		p + "cancel - Cancel the current command",
		p + "support - Contact the staff",
	}
	return strings.Join(lines, "\n")
}

func kindLabel(k subscribers.Kind) string {
	switch k {
	case subscribers.KindRoundStart:
		return "Round start"
	case subscribers.KindRankChanged:
		return "Rank change"
	case subscribers.KindPointsChanged:
		return "Score change"
	}
	return string(k)
}

func newsReply(o subscribers.OptIns, p string) Reply {
	var b strings.Builder
	b.WriteString("📲 Notifications\n")
	for _, k := range subscribers.AllKinds {
		state := "🔕 off"
		if o.Has(k) {
			state = "🔔 on"
		}
		b.WriteString("\n" + kindLabel(k) + ": " + state)
	}
	b.WriteString("\n\nUse " + p + "addnews / " + p + "delnews to change them.")
	return Reply{Title: "Notifications", Text: b.String(), Embed: true}
}

func teamMissingReply(p string) Reply {
	return Reply{Text: "⚠️ Your team is not on the leaderboard!\nUse " + p + "setteam <name> to update it."}
}

func parsePage(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
