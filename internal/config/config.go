package config

import (
	"fmt"
	"os"
	"time"
)

const (
	ServiceName    = "bikeshop"
	ServiceVersion = "0.1.0"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultGRPCAddr       = ":50051"
	defaultMySQLDSN       = "root:root@tcp(localhost:3306)/bikeshop"
	defaultRedisAddr      = "localhost:6379"
	defaultKafkaTopic     = "bikeshop.order-events"
	defaultLogLevel       = "info"
	defaultIdempotencyTTL = 24 * time.Hour
	ShutdownTimeout       = 5 * time.Second
)

// Config holds the settings that change between environments. Empty
// KafkaBroker and OtelEndpoint disable event publishing and trace export.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	MySQLDSN       string
	RedisAddr      string
	KafkaBroker    string
	KafkaTopic     string
	OtelEndpoint   string
	LogLevel       string
	IdempotencyTTL time.Duration
}

// LoadConfig reads the environment, falling back to local development defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", defaultHTTPAddr),
		GRPCAddr:     getEnv("GRPC_ADDR", defaultGRPCAddr),
		MySQLDSN:     getEnv("MYSQL_DSN", defaultMySQLDSN),
		RedisAddr:    getEnv("REDIS_ADDR", defaultRedisAddr),
		KafkaBroker:  os.Getenv("KAFKA_BROKER"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		OtelEndpoint: os.Getenv("OTEL_ENDPOINT"),
		LogLevel:     getEnv("LOG_LEVEL", defaultLogLevel),
	}

	cfg.IdempotencyTTL = defaultIdempotencyTTL
	if raw := os.Getenv("IDEMPOTENCY_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("IDEMPOTENCY_TTL must be positive, got %s", raw)
		}
		cfg.IdempotencyTTL = ttl
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
