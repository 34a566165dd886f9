package hxnav

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig is the registry configuration read from the environment.
type EnvConfig struct {
	WildcardState   string `env:"HXNAV_WILDCARD_STATE" envDefault:"*"`
	OnloadURL       string `env:"HXNAV_ONLOAD_URL"`
	LinkKey         string `env:"HXNAV_LINK_KEY"`
	SegmentFallback bool   `env:"HXNAV_SEGMENT_FALLBACK" envDefault:"false"`
	LogLevel        string `env:"HXNAV_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads .env files (missing files are ignored) and parses the
// environment. With no files, ".env" in the working directory is tried.
func LoadConfig(files ...string) (EnvConfig, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EnvConfig{}, fmt.Errorf("hxnav: load env file: %w", err)
	}

	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("hxnav: parse env: %w", err)
	}
	return cfg, nil
}

// Level parses LogLevel, defaulting to info.
func (c EnvConfig) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Options turns the configuration into registry options. The logger writes
// text to stderr at the configured level.
func (c EnvConfig) Options() []Option {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level()}))

	opts := []Option{
		WithLogger(logger),
		WithObserver(NewSlogObserver(logger)),
		WithWildcardState(c.WildcardState),
	}
	if c.OnloadURL != "" {
		opts = append(opts, WithOnloadURL(c.OnloadURL))
	}
	if c.LinkKey != "" {
		opts = append(opts, WithLinkKey([]byte(c.LinkKey)))
	}
	if c.SegmentFallback {
		opts = append(opts, WithSegmentFallback())
	}
	return opts
}

// NewRegistryFromConfig creates a registry from cfg. Extra options are
// applied after the configured ones.
func NewRegistryFromConfig(cfg EnvConfig, opts ...Option) *Registry {
	return NewRegistry(append(cfg.Options(), opts...)...)
}
