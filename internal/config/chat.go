package config

// TelegramConfig enables the Telegram adapter when Token is set.
type TelegramConfig struct {
	Token  string
	Admins []string
}

// DiscordConfig enables the Discord adapter when Token is set.
type DiscordConfig struct {
	Token  string
	Admins []string
}

// AMQPConfig enables the event publisher when URL is set.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// DeliveryConfig bounds outbound and inbound concurrency.
type DeliveryConfig struct {
	Workers        int
	InboundWorkers int
	InboundQueue   int
}

func (c TelegramConfig) Enabled() bool { return c.Token != "" }
func (c DiscordConfig) Enabled() bool  { return c.Token != "" }
func (c AMQPConfig) Enabled() bool     { return c.URL != "" }

func loadTelegram() TelegramConfig {
	return TelegramConfig{
		Token:  envOrDefault(envTelegramToken, ""),
		Admins: listEnv(envTelegramAdmins),
	}
}

func loadDiscord() DiscordConfig {
	return DiscordConfig{
		Token:  envOrDefault(envDiscordToken, ""),
		Admins: listEnv(envDiscordAdmins),
	}
}

func loadAMQP() AMQPConfig {
	return AMQPConfig{
		URL:      envOrDefault(envAMQPURL, ""),
		Exchange: envOrDefault(envAMQPExchange, defaultAMQPExchange),
	}
}

func loadDelivery() DeliveryConfig {
	return DeliveryConfig{
		Workers:        intEnvOrDefault(envDeliveryWorkers, defaultDeliveryWorkers),
		InboundWorkers: intEnvOrDefault(envInboundWorkers, defaultInboundWorkers),
		InboundQueue:   intEnvOrDefault(envInboundQueue, defaultInboundQueue),
	}
}
