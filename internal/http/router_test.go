package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/preston-bernstein/ranking-bot/internal/engine"
	"github.com/preston-bernstein/ranking-bot/internal/http/handlers"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/testutil"
)

func newRouter(t *testing.T, token string) (http.Handler, *engine.Engine) {
	t.Helper()
	snap := testutil.Snapshot(map[string]float64{"Team A": 10, "Team B": 20})
	fetcher := testutil.NewStubFetcher(testutil.FetchResult{Snapshot: snap})
	e := engine.New(fetcher, nil, nil, nil)
	sw := providers.NewSwitch(fetcher, fetcher, false)

	h := handlers.NewHandler(e, nil, nil)
	var admin *handlers.AdminHandler
	if token != "" {
		admin = handlers.NewAdminHandler(e, sw, token, nil)
	}
	return NewRouter(h, admin, nil, nil), e
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router, e := newRouter(t, "")
	if _, err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("seed cycle: %v", err)
	}

	cases := map[string]int{
		"/health":                      http.StatusOK,
		"/ready":                       http.StatusOK,
		"/leaderboard":                 http.StatusOK,
		"/teams/Team%20A":              http.StatusOK,
		"/teams/Team%20A/questions/q1": http.StatusOK,
		"/teams/Nobody":                http.StatusNotFound,
		"/does-not-exist":              http.StatusNotFound,
	}

	for path, expected := range cases {
		rr := testutil.Serve(router, http.MethodGet, path, nil)
		if rr.Code != expected {
			t.Fatalf("route %s expected status %d, got %d", path, expected, rr.Code)
		}
	}
}

func TestRouterQueriesBeforeRound(t *testing.T) {
	router, _ := newRouter(t, "")
	rr := testutil.Serve(router, http.MethodGet, "/leaderboard", nil)
	testutil.AssertErrorCode(t, rr, http.StatusServiceUnavailable, "round_not_active")
}

func TestRouterWrongMethod(t *testing.T) {
	router, _ := newRouter(t, "")
	rr := testutil.Serve(router, http.MethodPost, "/leaderboard", nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestRouterAdminRoutes(t *testing.T) {
	router, _ := newRouter(t, "")
	rr := testutil.Serve(router, http.MethodPost, "/admin/cycle", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	router, e := newRouter(t, "secret")
	rr = testutil.ServeRequest(router, testutil.BearerRequest(http.MethodPost, "/admin/cycle", "secret"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	if !e.RoundActive() {
		t.Fatalf("expected admin cycle to activate the round")
	}

	rr = testutil.Serve(router, http.MethodPost, "/admin/cycle", nil)
	testutil.AssertErrorCode(t, rr, http.StatusUnauthorized, "unauthorized")
}
