// Package config loads the application config file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds process-level settings shared by the CLI subcommands.
// Flags override anything set here.
type Config struct {
	// DBPath is the SQLite catalog database. Empty means no database.
	DBPath string `yaml:"db_path"`
	// DataFile is a game-data JSON dump loaded directly, bypassing SQLite.
	DataFile string `yaml:"data_file"`
	// ListenAddr is the HTTP listen address for the serve subcommand.
	ListenAddr string `yaml:"listen_addr"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:     "data/factory.db",
		ListenAddr: ":8080",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
