package config

import "github.com/joho/godotenv"

// Config holds runtime configuration for the bot.
type Config struct {
	Port         string
	PollInterval Duration
	Source       string
	AdminToken   string
	DBPath       string
	LogLevel     string
	LogFormat    string
	Ranking      RankingConfig
	Fixture      FixtureConfig
	Delivery     DeliveryConfig
	Telegram     TelegramConfig
	Discord      DiscordConfig
	AMQP         AMQPConfig
	Metrics      MetricsConfig
}

// Load reads configuration from a .env file (when present) and environment variables with sensible defaults.
// Variables already set in the environment win over the .env file.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	return Config{
		Port:         envOrDefault(envPort, defaultPort),
		PollInterval: durationEnvOrDefault(envPollInterval, defaultPollInterval),
		Source:       normalizeSource(envOrDefault(envSource, defaultSource)),
		AdminToken:   envOrDefault(envAdminToken, ""),
		DBPath:       envOrDefault(envDBPath, defaultDBPath),
		LogLevel:     envOrDefault(envLogLevel, defaultLogLevel),
		LogFormat:    envOrDefault(envLogFormat, defaultLogFormat),
		Ranking:      loadRanking(),
		Fixture:      loadFixture(),
		Delivery:     loadDelivery(),
		Telegram:     loadTelegram(),
		Discord:      loadDiscord(),
		AMQP:         loadAMQP(),
		Metrics:      loadMetrics(),
	}
}
