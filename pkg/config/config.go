// Package config holds the agent settings loaded from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/pidwatch/pkg/sampler"
	"github.com/ja7ad/pidwatch/pkg/source"
)

var (
	ErrBadInterval   = errors.New("config: interval must be > 0")
	ErrBadMaxEntries = errors.New("config: max_entries must be >= 0")
	ErrBadSource     = errors.New("config: unknown source")
	ErrBadLogLevel   = errors.New("config: unknown log level")
	ErrBadLogFormat  = errors.New("config: unknown log format")
	ErrNoSurface     = errors.New("config: neither listen nor mount is set")
)

// Config is the agent configuration. Zero values are replaced by Default
// when loading a file.
type Config struct {
	Interval   time.Duration `yaml:"interval"`
	Source     source.Kind   `yaml:"source"`
	MaxEntries int           `yaml:"max_entries"`
	Listen     string        `yaml:"listen"`
	Mount      string        `yaml:"mount"`
	PIDs       []string      `yaml:"pids"`
	Log        Log           `yaml:"log"`
}

// Log configures pkg/logging.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json

	// File enables a rotating log file instead of stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interval: sampler.DefaultInterval,
		Source:   source.Auto,
		Listen:   "127.0.0.1:9137",
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Parse(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving fields absent from b untouched.
// Durations use time.ParseDuration syntax ("5s"). Unknown keys are rejected.
func Parse(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrBadInterval, c.Interval)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: %d", ErrBadMaxEntries, c.MaxEntries)
	}
	if !validSource(c.Source) {
		return fmt.Errorf("%w: %q", ErrBadSource, c.Source)
	}
	if c.Listen == "" && c.Mount == "" {
		return ErrNoSurface
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrBadLogLevel, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrBadLogFormat, c.Log.Format)
	}
	return nil
}

func validSource(k source.Kind) bool {
	if k == "" {
		return true
	}
	for _, v := range source.Kinds() {
		if v == k {
			return true
		}
	}
	return false
}
