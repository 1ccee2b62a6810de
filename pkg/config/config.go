// Package config holds the persisted client settings: which Moodle instance
// to talk to, the web service token, and where downloads land. Settings live
// in a YAML file under the user config directory and can be overridden per
// run through environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the persisted client configuration.
type Config struct {
	// InstanceURL is the Moodle base URL, e.g. https://moodle.example.edu.
	InstanceURL string `yaml:"url"`
	// Token is the web service token used for every API call and download.
	Token string `yaml:"token"`
	// DownloadDir is where batch downloads are written. Empty means the
	// platform download directory default.
	DownloadDir string `yaml:"download_dir,omitempty"`
}

// Complete reports whether the config carries everything needed to talk to
// an instance. An incomplete config triggers first-run setup.
func (c Config) Complete() bool {
	return c.InstanceURL != "" && c.Token != ""
}

// DefaultPath returns the standard config file location,
// <user-config-dir>/muddle/config.yaml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(base, "muddle", "config.yaml"), nil
}

// DefaultDownloadDir returns the fallback download target when the config
// does not name one.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "muddle-downloads"
	}
	return filepath.Join(home, "Downloads", "muddle")
}

// Load reads the config file at path. A missing file is not an error; it
// yields a zero config so the caller can run first-time setup.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories. The file is
// written 0600 since it holds the token.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MUDDLE_URL, MUDDLE_TOKEN and MUDDLE_DOWNLOAD_DIR onto the
// config. Environment wins over file, flags win over both (the caller applies
// flags last).
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MUDDLE_URL"); v != "" {
		c.InstanceURL = v
	}
	if v := os.Getenv("MUDDLE_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("MUDDLE_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
}
