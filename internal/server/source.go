package server

import (
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/ranking-bot/internal/config"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/metrics"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/providers/fixture"
	"github.com/preston-bernstein/ranking-bot/internal/providers/ois"
)

// buildSource assembles the live client (metrics + retry) and the fixture behind a Switch.
func buildSource(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*providers.Switch, error) {
	client := ois.NewClient(ois.Config{
		BaseURL: cfg.Ranking.BaseURL,
		Timeout: cfg.Ranking.Timeout,
	})
	live := providers.NewRetryingFetcher(
		providers.WithMetrics(client, recorder, client.Name()),
		logger,
		client.Name(),
		cfg.Ranking.Retries+1,
		0,
	)

	fix, err := loadFixture(cfg.Fixture.Path)
	if err != nil {
		return nil, err
	}
	replay := providers.WithMetrics(fix, recorder, fix.Name())

	sw := providers.NewSwitch(live, replay, cfg.Source == config.SourceFixture)
	logging.Info(logger, "leaderboard source selected",
		slog.String("mode", sw.Mode()),
		slog.String("base_url", cfg.Ranking.BaseURL),
		slog.Int("fixture_frames", fix.Frames()),
	)
	return sw, nil
}

func loadFixture(path string) (*fixture.Provider, error) {
	if path == "" {
		return fixture.New(), nil
	}
	p, err := fixture.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", path, err)
	}
	return p, nil
}
