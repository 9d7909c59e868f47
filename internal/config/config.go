package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App    AppConfig      `envconfig:"APP"`
	Server ServerConfig   `envconfig:"HTTP"`
	Store  StoreConfig    `envconfig:"STORE"`
	DB     PostgresConfig `envconfig:"POSTGRES"`
	Kafka  KafkaConfig    `envconfig:"KAFKA"`
	Redis  RedisConfig    `envconfig:"REDIS"`
}

type AppConfig struct {
	Name string `split_words:"true" default:"fulfillment"`
	Env  string `split_words:"true" default:"local"`
}

type ServerConfig struct {
	Host            string        `split_words:"true" default:"0.0.0.0"`
	Port            int           `split_words:"true" default:"8030"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

type StoreConfig struct {
	Driver string `split_words:"true" default:"postgres"`
}

type PostgresConfig struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true" default:"5432"`
	User     string `split_words:"true" default:"postgres"`
	Password string `split_words:"true"`
	DBName   string `split_words:"true" default:"postgres"`
	SSLMode  string `split_words:"true" default:"disable"`
	MaxConns int    `split_words:"true" default:"10"`
}

type KafkaConfig struct {
	Enabled            bool     `split_words:"true" default:"true"`
	Brokers            []string `split_words:"true" default:"localhost:9092"`
	OrderEventsTopic   string   `split_words:"true" default:"order-events"`
	ReplenishmentTopic string   `split_words:"true" default:"replenishment-requests"`
	RestockTopic       string   `split_words:"true" default:"restock-events"`
	ConsumerGroup      string   `split_words:"true" default:"fulfillment"`
}

type RedisConfig struct {
	// URL is optional; checkout idempotency is disabled when it is empty.
	URL            string        `split_words:"true"`
	IdempotencyTTL time.Duration `split_words:"true" default:"24h"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	return &cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("database config is incomplete")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	return nil
}
