package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the environment configuration shared by all commands.
// Flags given on the command line override these values.
type Config struct {
	Database  string `env:"STORYLET_DB"          envDefault:"storylet.db"`
	Content   string `env:"STORYLET_CONTENT"     envDefault:"content"`
	LogLevel  string `env:"STORYLET_LOG_LEVEL"   envDefault:"info"`
	RedisAddr string `env:"STORYLET_REDIS_ADDR"`
	World     string `env:"STORYLET_WORLD"       envDefault:"default"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}
