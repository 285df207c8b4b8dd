package config

import "os"

// RelayConfig holds configuration for the outbox relay binary. It is a
// minimal config that only includes what the relay needs.
type RelayConfig struct {
	DatabaseURL      string
	RabbitMQURL      string
	ApplicationQueue string
	HealthListenAddr string
}

func LoadRelayConfig() *RelayConfig {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		panic("RABBITMQ_URL environment variable is required")
	}

	queue := os.Getenv("APPLICATION_QUEUE_NAME")
	if queue == "" {
		queue = "applications"
	}

	healthAddr := os.Getenv("RELAY_HEALTH_ADDR")
	if healthAddr == "" {
		healthAddr = ":8090"
	}

	return &RelayConfig{
		DatabaseURL:      dbURL,
		RabbitMQURL:      rabbitURL,
		ApplicationQueue: queue,
		HealthListenAddr: healthAddr,
	}
}
