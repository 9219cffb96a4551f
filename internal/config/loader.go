package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".provgraph"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
	// DatabaseFile is the default database file name under the home dir.
	DatabaseFile = "provenance.db"
)

// ConfigPath returns the path to the config file. PROVGRAPH_CONFIG overrides
// the default ~/.provgraph/config.json location.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("PROVGRAPH_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := resolveHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("PROVGRAPH_HOME")); h != "" {
		if strings.HasPrefix(h, "~") {
			base, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(base, h[1:]), nil
		}
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home, nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults

	envconfig.Process("PROVGRAPH_PATHS", &cfg.Paths)
	envconfig.Process("PROVGRAPH_QUERY", &cfg.Query)

	if cfg.Paths.Home == "" {
		home, err := resolveHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Paths.Home = filepath.Join(home, ConfigDir)
	}
	if cfg.Paths.Database == "" {
		cfg.Paths.Database = filepath.Join(cfg.Paths.Home, DatabaseFile)
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
