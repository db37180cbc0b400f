package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR"` // empty serves /metrics on the API router
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/kos?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`

	AuthVerifyURL       string        `env:"AUTH_VERIFY_URL" envDefault:"http://localhost:8081/api/v1/verify"`
	AuthTimeout         time.Duration `env:"AUTH_TIMEOUT" envDefault:"3s"`
	AuthRPS             int           `env:"AUTH_RPS" envDefault:"50"`
	InternalTokenSecret string        `env:"INTERNAL_TOKEN_SECRET"`
	OwnerServiceURL     string        `env:"OWNER_SERVICE_URL"`

	EventTransport  string `env:"EVENT_TRANSPORT" envDefault:"nats"`
	NATSURL         string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass       string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	EventSubject    string `env:"EVENT_SUBJECT" envDefault:"rental.created"`
	EventQueueGroup string `env:"EVENT_QUEUE_GROUP" envDefault:"kos-service"`
	EventWorkers    int    `env:"EVENT_WORKERS" envDefault:"8"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Warnings lists settings that are valid but probably unintended. Callers log
// them once the configured logger is installed.
func (c Config) Warnings() []string {
	var w []string
	if c.InternalTokenSecret == "" {
		w = append(w, "INTERNAL_TOKEN_SECRET is empty; internal calls will be rejected")
	}
	if c.OwnerServiceURL == "" {
		w = append(w, "OWNER_SERVICE_URL is empty; owner validation disabled")
	}
	return w
}

func (c Config) validate() error {
	switch c.EventTransport {
	case "nats", "redis":
	default:
		return fmt.Errorf("EVENT_TRANSPORT must be nats or redis, got %q", c.EventTransport)
	}
	if c.EventWorkers < 1 {
		return fmt.Errorf("EVENT_WORKERS must be positive, got %d", c.EventWorkers)
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive, got %s", c.AuthTimeout)
	}
	return nil
}
