package config

import "time"

const (
	envPort            = "PORT"
	envPollInterval    = "POLL_INTERVAL"
	envSource          = "SOURCE"
	envRankingBaseURL  = "RANKING_BASE_URL"
	envRankingTimeout  = "RANKING_TIMEOUT"
	envRankingRetries  = "RANKING_RETRIES"
	envFixturePath     = "FIXTURE_PATH"
	envDBPath          = "DB_PATH"
	envDeliveryWorkers = "DELIVERY_WORKERS"
	envInboundWorkers  = "INBOUND_WORKERS"
	envInboundQueue    = "INBOUND_QUEUE"
	envTelegramToken   = "TELEGRAM_TOKEN"
	envTelegramAdmins  = "TELEGRAM_ADMINS"
	envDiscordToken    = "DISCORD_TOKEN"
	envDiscordAdmins   = "DISCORD_ADMINS"
	envAMQPURL         = "AMQP_URL"
	envAMQPExchange    = "AMQP_EXCHANGE"
	envAdminToken      = "ADMIN_TOKEN"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"

	defaultPort = "8080"
	// The ranking server refreshes about once a minute during a round.
	defaultPollInterval    = Duration(time.Minute)
	defaultSource          = SourceLive
	defaultRankingBaseURL  = "https://judge.science.unitn.it/ranking"
	defaultRankingTimeout  = 5 * Duration(time.Second)
	defaultRankingRetries  = 2
	defaultDBPath          = "rankingbot.db"
	defaultDeliveryWorkers = 8
	defaultInboundWorkers  = 4
	defaultInboundQueue    = 64
	defaultAMQPExchange    = "rankingbot.events"
	defaultMetricsPort     = "9090"
	defaultServiceName     = "ranking-bot"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// Leaderboard sources accepted by SOURCE.
const (
	SourceLive    = "live"
	SourceFixture = "fixture"
)
