// Package config provides loading and validation of the viewstate settings
// file. Settings are deliberately small: the configured default view mode,
// the durable database location, and which document kinds are managed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"viewstate/pkg/mode"
)

// Defaults applied when the settings file is absent or partial.
const (
	DefaultModeLiteral = "source"
	DefaultManagedKind = "markdown"
	SettingsFilename   = "settings.yaml"
	DatabaseFilename   = "viewstate.db"
	configDirName      = "viewstate"
)

// Config holds the user-editable settings. Access goes through methods so
// a host can update the default mode at runtime and have the next
// resolution observe it; the raw fields exist for YAML only.
type Config struct {
	mu sync.RWMutex

	DefaultModeSetting string   `yaml:"default_mode"`
	Database           string   `yaml:"database"`
	ManagedKinds       []string `yaml:"managed_kinds"`
}

// Default returns a Config with all defaults applied and no file backing.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the settings file at path. A missing file yields the default
// configuration; a malformed or invalid file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultSettingsPath returns the per-user settings file location.
func DefaultSettingsPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, configDirName, SettingsFilename), nil
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.DefaultModeSetting == "" {
		c.DefaultModeSetting = DefaultModeLiteral
	}
	if len(c.ManagedKinds) == 0 {
		c.ManagedKinds = []string{DefaultManagedKind}
	}
	if c.Database == "" {
		if base, err := os.UserConfigDir(); err == nil {
			c.Database = filepath.Join(base, configDirName, DatabaseFilename)
		} else {
			c.Database = DatabaseFilename
		}
	}
}

// validate rejects settings that would put the tracker in an undefined
// state at runtime.
func (c *Config) validate() error {
	if _, err := mode.Parse(c.DefaultModeSetting); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	return nil
}

// DefaultMode returns the configured default view mode. Read on every
// resolution, never cached by callers, so runtime updates take effect
// immediately.
func (c *Config) DefaultMode() mode.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, err := mode.Parse(c.DefaultModeSetting)
	if err != nil {
		// validate() rejects bad literals at load; a bad runtime update
		// falls back to source rather than failing resolution.
		return mode.ModeSource
	}
	return m
}

// SetDefaultMode updates the configured default at runtime.
func (c *Config) SetDefaultMode(m mode.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultModeSetting = m.String()
}

// DatabasePath returns the durable store location.
func (c *Config) DatabasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Database
}

// IsManagedKind reports whether documents of the given content kind are
// toggle targets.
func (c *Config) IsManagedKind(kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, k := range c.ManagedKinds {
		if k == kind {
			return true
		}
	}
	return false
}
