// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for span configuration.
	DefaultConfigDir = ".span"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "span.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite      SQLiteConfig      `yaml:"sqlite,omitempty"`
	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// MusicBrainzConfig holds configuration for the MusicBrainz lookup client.
type MusicBrainzConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// Default returns a Config with default values relative to basePath.
func Default(basePath string) *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile),
		},
		MusicBrainz: MusicBrainzConfig{
			BaseURL:   "https://musicbrainz.org/ws/2",
			UserAgent: "span-core/1.0 (https://github.com/spanlab/span-core)",
		},
	}
}

// Load loads configuration from the .span directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'span init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default(basePath)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("SPAN_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if ua := os.Getenv("SPAN_MUSICBRAINZ_USER_AGENT"); ua != "" {
		c.MusicBrainz.UserAgent = ua
	}
}

// ConfigDir returns the path to the .span config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a span config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
