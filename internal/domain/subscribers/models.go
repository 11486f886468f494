package subscribers

import (
	"slices"
	"strings"
)

// Platform identifies the chat network a subscriber lives on.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
)

// Kind is a notification category a subscriber can opt into.
type Kind string

const (
	KindRoundStart    Kind = "eventStart"
	KindRankChanged   Kind = "rankChanged"
	KindPointsChanged Kind = "pointsChanged"
)

// AllKinds lists every opt-in kind in display order.
var AllKinds = []Kind{KindRoundStart, KindRankChanged, KindPointsChanged}

// ParseKind accepts the wire name or a short alias (start, rank, points).
func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "eventstart", "start", "round":
		return KindRoundStart, true
	case "rankchanged", "rank":
		return KindRankChanged, true
	case "pointschanged", "points", "score":
		return KindPointsChanged, true
	}
	return "", false
}

// Status is the adapter's conversational state for a chat. The engine never reads it.
type Status string

const (
	StatusNormal         Status = "normal"
	StatusChangingTeam   Status = "changing_team"
	StatusCallingSupport Status = "calling_support"
)

// OptIns is the set of notification kinds a subscriber wants.
type OptIns map[Kind]struct{}

// DefaultOptIns returns a set with every kind enabled.
func DefaultOptIns() OptIns {
	return NewOptIns(AllKinds...)
}

// NewOptIns builds a set from kinds.
func NewOptIns(kinds ...Kind) OptIns {
	o := make(OptIns, len(kinds))
	for _, k := range kinds {
		o[k] = struct{}{}
	}
	return o
}

// Has reports whether kind is enabled.
func (o OptIns) Has(kind Kind) bool {
	_, ok := o[kind]
	return ok
}

// Toggle flips kind and returns the new state.
func (o OptIns) Toggle(kind Kind) bool {
	if o.Has(kind) {
		delete(o, kind)
		return false
	}
	o[kind] = struct{}{}
	return true
}

// List returns enabled kinds in display order.
func (o OptIns) List() []Kind {
	out := make([]Kind, 0, len(o))
	for _, k := range AllKinds {
		if o.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Clone returns an independent copy.
func (o OptIns) Clone() OptIns {
	return NewOptIns(o.List()...)
}

// Key uniquely identifies a subscriber across platforms.
type Key struct {
	Platform Platform
	ChatID   string
}

func (k Key) String() string {
	return string(k.Platform) + ":" + k.ChatID
}

// Subscriber is a registered chat with its notification preferences.
type Subscriber struct {
	Platform  Platform `json:"platform"`
	ChatID    string   `json:"chatId"`
	OptIns    OptIns   `json:"-"`
	Team      string   `json:"team,omitempty"`
	ViewEmbed bool     `json:"viewEmbed,omitempty"`
	Status    Status   `json:"status,omitempty"`
}

// New returns a subscriber with default preferences.
func New(platform Platform, chatID string) Subscriber {
	return Subscriber{
		Platform: platform,
		ChatID:   chatID,
		OptIns:   DefaultOptIns(),
		Status:   StatusNormal,
	}
}

func (s Subscriber) Key() Key {
	return Key{Platform: s.Platform, ChatID: s.ChatID}
}

// Wants reports whether the subscriber opted into kind.
func (s Subscriber) Wants(kind Kind) bool {
	return s.OptIns.Has(kind)
}

// Follows reports whether the subscriber follows team (exact, case-sensitive).
func (s Subscriber) Follows(team string) bool {
	return s.Team != "" && s.Team == team
}

// KindNames renders opt-ins for storage.
func KindNames(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// OptInsFromNames parses stored kind names, ignoring unknown entries.
func OptInsFromNames(names []string) OptIns {
	o := make(OptIns, len(names))
	for _, n := range names {
		k := Kind(n)
		if slices.Contains(AllKinds, k) {
			o[k] = struct{}{}
		}
	}
	return o
}
