package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/preston-bernstein/ranking-bot/internal/bot"
	"github.com/preston-bernstein/ranking-bot/internal/config"
	"github.com/preston-bernstein/ranking-bot/internal/delivery"
	"github.com/preston-bernstein/ranking-bot/internal/engine"
	httpserver "github.com/preston-bernstein/ranking-bot/internal/http"
	"github.com/preston-bernstein/ranking-bot/internal/http/handlers"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
	"github.com/preston-bernstein/ranking-bot/internal/poller"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/registry"
)

var metricsSetup = metrics.Setup

// connectChat is swapped in tests to avoid reaching chat APIs.
var connectChat = buildChat

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	engine        *engine.Engine
	source        *providers.Switch
	handler       *bot.Handler
	pool          *bot.Pool
	listeners     []chatListener
	listenersWG   sync.WaitGroup
	closers       []closer
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
}

// New constructs a server with the configured source, registry, chat adapters and poller.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(cfg, logger, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	source, err := buildSource(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	closers := []closer{{name: "registry", close: reg.Close}}

	chat, err := connectChat(cfg, logger)
	if err != nil {
		closeAll(closers, logger)
		return nil, err
	}
	closers = append(closers, chat.closers...)

	fanout := delivery.NewFanout(chat.router, reg, recorder, logger, cfg.Delivery.Workers)
	eng := engine.New(source, reg, fanout, logger)
	handler := bot.NewHandler(bot.Config{
		Subscribers: reg,
		Board:       eng,
		Source:      source,
		Notifier:    fanout,
		Direct:      chat.router,
		Admins:      chat.admins,
		Logger:      logger,
	})
	plr := poller.New(eng, logger, recorder, cfg.PollInterval)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		engine:        eng,
		source:        source,
		handler:       handler,
		pool:          bot.NewPool(cfg.Delivery.InboundWorkers, cfg.Delivery.InboundQueue, logger),
		listeners:     chat.listeners,
		closers:       closers,
		httpServer:    buildHTTPServer(cfg, eng, source, logger, recorder, plr),
		metricsServer: metricsSrv,
		poller:        plr,
		metricsStop:   metricsShutdown,
	}, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
	}
}

func buildHTTPServer(cfg config.Config, eng *engine.Engine, source *providers.Switch, logger *slog.Logger, recorder *metrics.Recorder, plr Poller) httpServer {
	var statusFn func() poller.Status
	if plr != nil {
		statusFn = plr.Status
	}
	handler := handlers.NewHandler(eng, logger, statusFn)

	var admin *handlers.AdminHandler
	if cfg.AdminToken != "" {
		admin = handlers.NewAdminHandler(eng, source, cfg.AdminToken, logger)
	}
	return newNetHTTPServer(":"+cfg.Port, httpserver.NewRouter(handler, admin, logger, recorder))
}

// Run starts the HTTP servers, chat listeners and poller, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.startListeners(ctx)
	s.poller.Start(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")
	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) startListeners(ctx context.Context) {
	for _, l := range s.listeners {
		s.listenersWG.Add(1)
		go func() {
			defer s.listenersWG.Done()
			if err := l.run(ctx, s.handler, s.pool); err != nil {
				logging.Error(s.logger, "chat listener stopped", err, slog.String(logging.FieldPlatform, l.name))
			}
		}()
	}
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}
	if err := s.poller.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop poller", err)
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	s.waitListeners(shutdownCtx)
	if s.pool != nil {
		s.pool.Close()
	}
	_ = closeAll(s.closers, s.logger)

	logging.Info(s.logger, "shutdown complete")
}

func (s *Server) waitListeners(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.listenersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn(s.logger, "chat listeners did not stop in time", "error", ctx.Err())
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := cfg.Metrics.Telemetry()
	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = newNetHTTPServer(":"+recCfg.Port, handler)
	}
	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Engine exposes the cycle engine (useful for tests and the CLI).
func (s *Server) Engine() *engine.Engine {
	return s.engine
}
