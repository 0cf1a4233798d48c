// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr   string        `env:"LISTEN_ADDR" envDefault:":8080"`
	TurnDeadline time.Duration `env:"TURN_DEADLINE" envDefault:"5s"`
	MaxTurns     int           `env:"MAX_TURNS" envDefault:"100"`

	// Empty URLs disable the corresponding collaborator.
	PostgresURL string `env:"POSTGRES_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// VisualizerCmd is the executable launched per visualized session;
	// empty disables visualization support entirely.
	VisualizerCmd  string   `env:"VISUALIZER_CMD"`
	VisualizerArgs []string `env:"VISUALIZER_ARGS" envSeparator:" "`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info("loaded environment from .env")
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// ApplyLogLevel configures the global logger from the parsed level,
// falling back to info on garbage input.
func (c Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
		log.WithField("value", c.LogLevel).Warn("unknown log level, using info")
	}
	log.SetLevel(level)
}
