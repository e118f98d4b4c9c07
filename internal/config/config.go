// Package config loads runtime settings: defaults, then an optional YAML
// file, then TRANCHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath string       `yaml:"db_path" env:"TRANCHE_DB"`
	Log    LogConfig    `yaml:"log" envPrefix:"TRANCHE_LOG_"`
	HTTP   HTTPConfig   `yaml:"http" envPrefix:"TRANCHE_HTTP_"`
	JWT    JWTConfig    `yaml:"jwt" envPrefix:"TRANCHE_JWT_"`
	AMQP   AMQPConfig   `yaml:"amqp" envPrefix:"TRANCHE_AMQP_"`
	Redis  RedisConfig  `yaml:"redis" envPrefix:"TRANCHE_REDIS_"`
	Outbox OutboxConfig `yaml:"outbox" envPrefix:"TRANCHE_OUTBOX_"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	Issuer string        `yaml:"issuer" env:"ISSUER"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

// AMQPConfig enables RabbitMQ publishing when URL is set.
type AMQPConfig struct {
	URL string `yaml:"url" env:"URL"`
}

// RedisConfig switches project locking to Redis when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
}

type OutboxConfig struct {
	Interval    time.Duration `yaml:"interval" env:"INTERVAL"`
	Backoff     time.Duration `yaml:"backoff" env:"BACKOFF"`
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	BatchSize   int           `yaml:"batch_size" env:"BATCH_SIZE"`
}

// Default returns a Config usable for local development.
func Default() Config {
	return Config{
		DBPath: DefaultDBPath(),
		Log:    LogConfig{Level: "info"},
		HTTP:   HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		JWT:    JWTConfig{Issuer: "tranche", TTL: 24 * time.Hour},
		Redis:  RedisConfig{LockTTL: 30 * time.Second},
		Outbox: OutboxConfig{
			Interval:    time.Second,
			Backoff:     5 * time.Second,
			MaxAttempts: 5,
			BatchSize:   100,
		},
	}
}

// DefaultDBPath is ~/.tranche/tranche.db, or ./tranche.db when the home
// directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tranche.db"
	}
	return filepath.Join(home, ".tranche", "tranche.db")
}

// Load builds the configuration. path may be empty. environ overrides the
// process environment when non-nil.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("jwt.secret must be at least 16 bytes"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("jwt.ttl must be positive"))
	}
	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		errs = append(errs, errors.New("redis.lock_ttl must be positive when redis is enabled"))
	}
	if c.Outbox.Interval <= 0 || c.Outbox.Backoff <= 0 {
		errs = append(errs, errors.New("outbox.interval and outbox.backoff must be positive"))
	}
	if c.Outbox.MaxAttempts < 1 || c.Outbox.BatchSize < 1 {
		errs = append(errs, errors.New("outbox.max_attempts and outbox.batch_size must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
