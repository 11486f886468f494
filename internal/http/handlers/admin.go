package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/http/requestutil"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
)

// Trigger runs an out-of-band cycle.
type Trigger interface {
	ForceCycle(ctx context.Context) (engine.Report, error)
}

// SourceToggle flips between the live source and the fixture.
type SourceToggle interface {
	UseFixture(on bool) bool
	Mode() string
}

// AdminHandler exposes admin-only endpoints guarded by a bearer token.
type AdminHandler struct {
	trigger Trigger
	source  SourceToggle
	token   string
	logger  *slog.Logger
}

// CycleResponse is the body of POST /admin/cycle.
type CycleResponse struct {
	engine.Report
	FetchError string `json:"fetchError,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(trigger Trigger, source SourceToggle, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		trigger: trigger,
		source:  source,
		token:   token,
		logger:  logger,
	}
}

// Authorize rejects requests without the configured bearer token.
func (h *AdminHandler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			logging.Warn(h.logger, "admin unauthorized",
				slog.String(logging.FieldPath, r.URL.Path),
				slog.String("client_ip", requestutil.ClientIP(r)),
			)
			writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "unauthorized", h.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cycle runs one fetch, diff and notify pass. Overlapping requests get 409.
func (h *AdminHandler) Cycle(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if h.trigger == nil {
		writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "engine not configured", logger)
		return
	}
	// A disconnecting client must not abort the cycle halfway through its fan-out.
	report, err := h.trigger.ForceCycle(context.WithoutCancel(r.Context()))
	if errors.Is(err, engine.ErrBusy) {
		writeError(w, r, http.StatusConflict, CodeBusy, "a cycle is already running", logger)
		return
	}

	resp := CycleResponse{Report: report, DurationMS: report.Duration.Milliseconds()}
	if report.FetchErr != nil {
		resp.FetchError = report.FetchErr.Error()
	} else if err != nil {
		logging.Error(logger, "admin cycle failed", err)
		writeError(w, r, http.StatusInternalServerError, CodeInternal, err.Error(), logger)
		return
	}
	logging.Info(logger, "admin cycle completed",
		slog.String(logging.FieldCycleID, report.CycleID),
		slog.String(logging.FieldRound, report.Round),
		slog.Int(logging.FieldCount, report.Events),
	)
	writeJSON(w, http.StatusOK, resp, logger)
}

// Source switches the leaderboard source: ?mode=live|fixture.
func (h *AdminHandler) Source(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if h.source == nil {
		writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "source switch not configured", logger)
		return
	}
	var useFixture bool
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))) {
	case providers.ModeLive:
	case providers.ModeFixture:
		useFixture = true
	default:
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, "mode must be live or fixture", logger)
		return
	}
	h.source.UseFixture(useFixture)
	logging.Info(logger, "leaderboard source switched", "mode", h.source.Mode())
	writeJSON(w, http.StatusOK, map[string]string{"mode": h.source.Mode()}, logger)
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got := requestutil.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
