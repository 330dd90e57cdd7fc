// Package models defines data structures for configuration, transcripts and worker messages.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for a scrape run.
// Values come from an optional YAML file and are overridden by CLI flags.
type Config struct {
	URL         string `yaml:"url,omitempty"`
	RemoteURL   string `yaml:"remote_url,omitempty"` // DevTools websocket of an already running browser
	Headless    bool   `yaml:"headless,omitempty"`
	UserDataDir string `yaml:"user_data_dir,omitempty"`
	AnySite     bool   `yaml:"any_site,omitempty"`

	// Scroll convergence
	Settle        time.Duration `yaml:"settle"`
	NoGrowthLimit int           `yaml:"no_growth_limit"`
	MaxIterations int           `yaml:"max_iterations,omitempty"` // 0 = unbounded
	MaxDuration   time.Duration `yaml:"max_duration,omitempty"`   // 0 = unbounded

	LoadTimeout time.Duration `yaml:"load_timeout"`
	RulesFile   string        `yaml:"rules_file,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Settle:        1500 * time.Millisecond,
		NoGrowthLimit: 2,
		LoadTimeout:   30 * time.Second,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the scroll loop cannot work with.
func (c Config) Validate() error {
	if c.Settle <= 0 {
		return fmt.Errorf("settle must be positive, got %s", c.Settle)
	}
	if c.NoGrowthLimit < 1 {
		return fmt.Errorf("no_growth_limit must be at least 1, got %d", c.NoGrowthLimit)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max_duration must not be negative, got %s", c.MaxDuration)
	}
	return nil
}
