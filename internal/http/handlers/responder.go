package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/ranking-bot/internal/http/middleware"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeTeamNotFound     = "team_not_found"
	CodeQuestionNotFound = "question_not_found"
	CodeRoundNotActive   = "round_not_active"
	CodeBusy             = "busy"
	CodeUnauthorized     = "unauthorized"
	CodeBadRequest       = "bad_request"
	CodeNotReady         = "not_ready"
	CodeInternal         = "internal"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	writeJSON(w, status, errorBody{Error: message, Code: code, RequestID: reqID}, logger)
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
