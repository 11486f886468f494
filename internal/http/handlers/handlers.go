package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/poller"
)

// Board is the read side of the engine.
type Board interface {
	State() engine.RoundState
	Board() (*leaderboard.Snapshot, error)
	Partial(team, question string) (float64, error)
}

// Handler serves health probes and leaderboard queries.
type Handler struct {
	board    Board
	logger   *slog.Logger
	statusFn func() poller.Status
}

// NewHandler constructs a Handler. statusFn may be nil, in which case /ready always succeeds.
func NewHandler(board Board, logger *slog.Logger, statusFn func() poller.Status) *Handler {
	return &Handler{
		board:    board,
		logger:   logger,
		statusFn: statusFn,
	}
}

// LeaderboardResponse is the body of GET /leaderboard.
type LeaderboardResponse struct {
	Round     string                 `json:"round"`
	FetchedAt time.Time              `json:"fetchedAt"`
	MaxTotal  float64                `json:"maxTotal"`
	Questions []leaderboard.Question `json:"questions"`
	Standings []leaderboard.Standing `json:"standings"`
}

// TeamResponse is the body of GET /teams/{team}.
type TeamResponse struct {
	leaderboard.Standing
	Partials map[string]float64 `json:"partials"`
}

// PartialResponse is the body of GET /teams/{team}/questions/{question}.
type PartialResponse struct {
	Team     string  `json:"team"`
	Question string  `json:"question"`
	Score    float64 `json:"score"`
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports whether the poller has run and the source is not failing repeatedly.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.statusFn == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "round": status.Round}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, msg, h.logger)
}

// Leaderboard returns the ranked standings of the current round.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.Board()
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Round:     h.board.State().String(),
		FetchedAt: snap.FetchedAt(),
		MaxTotal:  snap.MaxTotal(),
		Questions: snap.Questions(),
		Standings: snap.Standings(),
	}, h.logger)
}

// Team returns one team's standing with per-question scores, read from a single snapshot.
func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.Board()
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	st, err := snap.Standing(chi.URLParam(r, "team"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	questions := snap.Questions()
	partials := make(map[string]float64, len(questions))
	for i, q := range questions {
		partials[q.Name] = st.Team.Scores[i]
	}
	writeJSON(w, http.StatusOK, TeamResponse{Standing: st, Partials: partials}, h.logger)
}

// Partial returns a team's score on one question.
func (h *Handler) Partial(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	question := chi.URLParam(r, "question")
	score, err := h.board.Partial(team, question)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PartialResponse{Team: team, Question: question, Score: score}, h.logger)
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not_found", "not found", h.logger)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", h.logger)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrRoundNotActive):
		writeError(w, r, http.StatusServiceUnavailable, CodeRoundNotActive, "no round is running", h.logger)
	case errors.Is(err, leaderboard.ErrQuestionNotFound):
		writeError(w, r, http.StatusNotFound, CodeQuestionNotFound, err.Error(), h.logger)
	case errors.Is(err, leaderboard.ErrTeamNotFound):
		writeError(w, r, http.StatusNotFound, CodeTeamNotFound, err.Error(), h.logger)
	default:
		logger := loggerFromContext(r, h.logger)
		if logger != nil {
			logger.Error("leaderboard lookup failed", "error", err)
		}
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error", h.logger)
	}
}
