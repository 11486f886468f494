package leaderboard

import (
	"errors"
	"slices"
	"sort"
	"time"
)

// DefaultMaxScore is the score cap of a single question when the source omits it.
const DefaultMaxScore = 100.0

var (
	// ErrTeamNotFound is returned when a team name is not in the snapshot's team list.
	// Names are matched exactly, case included.
	ErrTeamNotFound = errors.New("team not found in leaderboard")
	// ErrQuestionNotFound is returned when a question name is not part of the snapshot.
	ErrQuestionNotFound = errors.New("question not part of this round")
)

// Question is a single task of the round.
type Question struct {
	Name     string  `json:"name" yaml:"name"`
	Order    int     `json:"order" yaml:"order"`
	MaxScore float64 `json:"maxScore" yaml:"maxScore"`
}

// Team is a leaderboard entry. Scores are aligned with the snapshot's question order.
type Team struct {
	Name   string    `json:"name"`
	Scores []float64 `json:"scores"`
}

// Total returns the sum of the team's per-question scores.
func (t Team) Total() float64 {
	var total float64
	for _, s := range t.Scores {
		total += s
	}
	return total
}

func (t Team) clone() Team {
	return Team{Name: t.Name, Scores: slices.Clone(t.Scores)}
}

// Standing is a team with its derived rank.
type Standing struct {
	Rank  int     `json:"rank"`
	Team  Team    `json:"team"`
	Total float64 `json:"total"`
}

// TeamInput is the source-level shape of a team: scores keyed by question name.
type TeamInput struct {
	Name   string
	Scores map[string]float64
}

// Snapshot is an immutable capture of the leaderboard at one poll.
type Snapshot struct {
	questions []Question
	teams     []Team
	standings []Standing
	byTeam    map[string]int
	byQuest   map[string]int
	fetchedAt time.Time
}

// NewSnapshot builds a snapshot. Questions are ordered by Order (stable); teams keep
// the given source order, which is also the tie-break order for ranking. Missing
// scores count as zero.
func NewSnapshot(questions []Question, teams []TeamInput, fetchedAt time.Time) *Snapshot {
	qs := slices.Clone(questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	for i := range qs {
		if qs[i].MaxScore <= 0 {
			qs[i].MaxScore = DefaultMaxScore
		}
	}

	s := &Snapshot{
		questions: qs,
		teams:     make([]Team, 0, len(teams)),
		byTeam:    make(map[string]int, len(teams)),
		byQuest:   make(map[string]int, len(qs)),
		fetchedAt: fetchedAt,
	}
	for i, q := range qs {
		s.byQuest[q.Name] = i
	}
	for _, in := range teams {
		if _, dup := s.byTeam[in.Name]; dup {
			continue
		}
		s.byTeam[in.Name] = len(s.teams)
		scores := make([]float64, len(qs))
		for i, q := range qs {
			scores[i] = in.Scores[q.Name]
		}
		s.teams = append(s.teams, Team{Name: in.Name, Scores: scores})
	}
	s.rank()
	return s
}

func (s *Snapshot) rank() {
	order := make([]int, len(s.teams))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.teams[order[a]].Total() > s.teams[order[b]].Total()
	})

	s.standings = make([]Standing, len(order))
	for pos, idx := range order {
		team := s.teams[idx]
		s.standings[pos] = Standing{Rank: pos + 1, Team: team, Total: team.Total()}
		s.byTeam[team.Name] = pos
	}
}

// Questions returns the round's questions in ordinal order.
func (s *Snapshot) Questions() []Question {
	if s == nil {
		return nil
	}
	return slices.Clone(s.questions)
}

// Teams returns teams in source order.
func (s *Snapshot) Teams() []Team {
	if s == nil {
		return nil
	}
	out := make([]Team, len(s.teams))
	for i, t := range s.teams {
		out[i] = t.clone()
	}
	return out
}

// Standings returns teams ranked by total score, descending.
func (s *Snapshot) Standings() []Standing {
	if s == nil {
		return nil
	}
	out := make([]Standing, len(s.standings))
	for i, st := range s.standings {
		st.Team = st.Team.clone()
		out[i] = st
	}
	return out
}

// Len returns the number of teams.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.teams)
}

// FetchedAt reports when the snapshot was captured.
func (s *Snapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

// MaxTotal is the best total reachable in this round.
func (s *Snapshot) MaxTotal() float64 {
	var total float64
	for _, q := range s.Questions() {
		total += q.MaxScore
	}
	return total
}

// HasTeam reports whether name is in the team list.
func (s *Snapshot) HasTeam(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byTeam[name]
	return ok
}

// Standing returns the ranked entry for a team.
func (s *Snapshot) Standing(name string) (Standing, error) {
	if s == nil {
		return Standing{}, ErrTeamNotFound
	}
	pos, ok := s.byTeam[name]
	if !ok {
		return Standing{}, ErrTeamNotFound
	}
	st := s.standings[pos]
	st.Team = st.Team.clone()
	return st, nil
}

// QuestionIndex returns the ordinal position of a question.
func (s *Snapshot) QuestionIndex(name string) (int, error) {
	if s == nil {
		return 0, ErrQuestionNotFound
	}
	idx, ok := s.byQuest[name]
	if !ok {
		return 0, ErrQuestionNotFound
	}
	return idx, nil
}

// Partial returns a team's score on a single question. The question is checked first,
// so a stale question reference is reported as such even for an unknown team.
func (s *Snapshot) Partial(team, question string) (float64, error) {
	idx, err := s.QuestionIndex(question)
	if err != nil {
		return 0, err
	}
	st, err := s.Standing(team)
	if err != nil {
		return 0, err
	}
	return st.Team.Scores[idx], nil
}
