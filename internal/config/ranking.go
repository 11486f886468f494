package config

import "strings"

// RankingConfig controls how we talk to the contest ranking server.
type RankingConfig struct {
	BaseURL string
	Timeout Duration
	Retries int
}

// FixtureConfig points the fixture source at a YAML file; empty uses the embedded one.
type FixtureConfig struct {
	Path string
}

func loadRanking() RankingConfig {
	return RankingConfig{
		BaseURL: strings.TrimSuffix(envOrDefault(envRankingBaseURL, defaultRankingBaseURL), "/"),
		Timeout: durationEnvOrDefault(envRankingTimeout, defaultRankingTimeout),
		Retries: intEnvOrDefault(envRankingRetries, defaultRankingRetries),
	}
}

func loadFixture() FixtureConfig {
	return FixtureConfig{Path: envOrDefault(envFixturePath, "")}
}

func normalizeSource(raw string) string {
	switch strings.ToLower(raw) {
	case SourceFixture:
		return SourceFixture
	default:
		return SourceLive
	}
}
