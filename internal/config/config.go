// Package config holds buildNERD's own tool configuration, read from
// config.yaml in the user home directory. This is distinct from build
// properties: it configures the tool (logging, watch behavior), not the
// builds it resolves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all buildNERD tool configuration.
type Config struct {
	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Properties-file watching
	Watch WatchConfig `yaml:"watch"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// WatchConfig configures the properties-file watcher.
type WatchConfig struct {
	// Debounce window for collapsing rapid saves, e.g. "500ms".
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// UserHomeDir returns the buildNERD user home directory: BUILDNERD_HOME
// if set, otherwise ~/.buildnerd.
func UserHomeDir() string {
	if home := os.Getenv("BUILDNERD_HOME"); home != "" {
		return home
	}
	osHome, err := os.UserHomeDir()
	if err != nil {
		return ".buildnerd"
	}
	return filepath.Join(osHome, ".buildnerd")
}

// DefaultConfigPath returns the default path to config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(UserHomeDir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("BUILDNERD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
