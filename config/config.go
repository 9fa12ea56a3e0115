// Package config loads settings for a CLI host program from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable read by [Load].
const Prefix = "CMDBIND_"

var ErrInvalid = errors.New("invalid configuration")

// Config holds host program settings.
type Config struct {
	LogLevel        slog.Level `env:"LOG_LEVEL"        envDefault:"WARN"`
	LogFile         string     `env:"LOG_FILE"`
	Manifest        string     `env:"MANIFEST"`
	InteractiveFlag string     `env:"INTERACTIVE_FLAG" envDefault:"-i"`
}

// Load reads a [Config] from the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads a [Config] from the given variables instead of the process environment.
// Keys must include the [Prefix].
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if !strings.HasPrefix(cfg.InteractiveFlag, "-") {
		return Config{}, fmt.Errorf("%w: interactive flag '%s' must start with '-'", ErrInvalid, cfg.InteractiveFlag)
	}
	return cfg, nil
}
