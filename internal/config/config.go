// Package config provides configuration loading for the clicker process.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Save backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all process configuration.
type Config struct {
	Game      GameConfig      `yaml:"game"`
	Save      SaveConfig      `yaml:"save"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// GameConfig controls the tick loop and the interactive wait.
type GameConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	WaitSeconds   float64       `yaml:"wait_seconds"`
	StatusEvery   uint64        `yaml:"status_every"`   // 0 disables the live status line
	AutosaveEvery uint64        `yaml:"autosave_every"` // 0 disables autosave
}

// SaveConfig selects where the game is persisted.
type SaveConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// APIConfig controls the optional HTTP API.
type APIConfig struct {
	Port     int    `yaml:"port"`      // 0 disables
	AdminKey string `yaml:"admin_key"` // Bearer token for the save endpoint
}

// TelemetryConfig controls CSV sampling.
type TelemetryConfig struct {
	Path        string `yaml:"path"` // Empty disables
	SampleEvery uint64 `yaml:"sample_every"`
}

// LogConfig controls the default logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads a YAML file over the embedded defaults; only keys present in the
// file override. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Game.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_interval must be positive, got %s", c.Game.TickInterval))
	}
	if c.Game.WaitSeconds < 0 {
		errs = append(errs, fmt.Errorf("game.wait_seconds must not be negative"))
	}
	switch c.Save.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("save.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Save.Backend))
	}
	if c.Save.Path == "" {
		errs = append(errs, errors.New("save.path must be set"))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// WriteYAML writes the effective configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
