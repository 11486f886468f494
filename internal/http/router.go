package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/preston-bernstein/ranking-bot/internal/http/handlers"
	"github.com/preston-bernstein/ranking-bot/internal/http/middleware"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
)

// NewRouter registers the query routes and, when admin is non-nil, the admin routes.
func NewRouter(h *handlers.Handler, admin *handlers.AdminHandler, logger *slog.Logger, recorder *metrics.Recorder) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger, recorder))
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/teams/{team}", h.Team)
	r.Get("/teams/{team}/questions/{question}", h.Partial)

	if admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.Authorize)
			r.Post("/cycle", admin.Cycle)
			r.Post("/source", admin.Source)
		})
	}
	return r
}
