package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Provider  ProviderConfig  `koanf:"provider"`
	Poller    PollerConfig    `koanf:"poller"`
	Retry     RetryConfig     `koanf:"retry"`
	Terminals TerminalsConfig `koanf:"terminals"`
	Database  DatabaseConfig  `koanf:"database"`
	Logger    LoggerConfig    `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

// ProviderConfig holds the connection settings for the payment provider's
// REST API. APISecret is deliberately not required here: a missing secret is
// surfaced as a configuration error on the first outbound call, so the
// service can still boot and report the problem through its own surface.
type ProviderConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	APISecret   string        `koanf:"api_secret"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type PollerConfig struct {
	Interval time.Duration `koanf:"interval"`
	Ceiling  time.Duration `koanf:"ceiling"`
	// TreatUnknownAsTransient keeps polling through unrecognized intent
	// statuses instead of failing the attempt.
	TreatUnknownAsTransient bool `koanf:"treat_unknown_as_transient"`
}

// RetryConfig tunes the retry decorator around idempotent provider calls.
type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

// TerminalsConfig selects where the terminal enablement flags come from.
// Source is either "static" (Enabled holds a comma-separated id list) or
// "postgres" (flags live in the terminal_enablement table).
type TerminalsConfig struct {
	Source  string `koanf:"source" validate:"required,oneof=static postgres"`
	Enabled string `koanf:"enabled"`
}

func (t TerminalsConfig) EnabledIDs() []string {
	if t.Enabled == "" {
		return nil
	}

	parts := strings.Split(t.Enabled, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func (c LoggerConfig) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("TERMINALFLOW_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "TERMINALFLOW_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if mainConfig.Poller.Interval == 0 {
		mainConfig.Poller.Interval = time.Second
	}
	if mainConfig.Poller.Ceiling == 0 {
		mainConfig.Poller.Ceiling = 60 * time.Second
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
