package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/preston-bernstein/ranking-bot/internal/config"
	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/logging"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
	"github.com/preston-bernstein/ranking-bot/internal/providers/fixture"
	"github.com/preston-bernstein/ranking-bot/internal/providers/ois"
)

type fetchOptions struct {
	fixture bool
	frame   int
	baseURL string
}

type fetchOutput struct {
	FetchedAt time.Time              `json:"fetchedAt"`
	MaxTotal  float64                `json:"maxTotal"`
	Standings []leaderboard.Standing `json:"standings"`
}

func newFetchCommand() *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the leaderboard once and print the standings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, config.Load(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.fixture, "fixture", false, "read from the fixture instead of the live source")
	cmd.Flags().IntVar(&opts.frame, "frame", 0, "fixture frame to print (0-based)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "override the live source base URL")
	return cmd
}

func runFetch(cmd *cobra.Command, cfg config.Config, opts *fetchOptions) error {
	logger := logging.NewLogger(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})

	var (
		snap *leaderboard.Snapshot
		err  error
	)
	if opts.fixture || cfg.Source == config.SourceFixture {
		var p *fixture.Provider
		p, err = fixture.Load(cfg.Fixture.Path)
		if err != nil {
			return err
		}
		for i := 0; i <= opts.frame; i++ {
			snap, err = p.FetchSnapshot(cmd.Context())
		}
	} else {
		baseURL := cfg.Ranking.BaseURL
		if opts.baseURL != "" {
			baseURL = opts.baseURL
		}
		client := ois.NewClient(ois.Config{BaseURL: baseURL, Timeout: cfg.Ranking.Timeout})
		fetcher := providers.NewRetryingFetcher(client, logger, client.Name(), cfg.Ranking.Retries+1, 0)
		snap, err = fetcher.FetchSnapshot(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(fetchOutput{
		FetchedAt: snap.FetchedAt(),
		MaxTotal:  snap.MaxTotal(),
		Standings: snap.Standings(),
	})
}
