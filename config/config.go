// Package config persists the daemon's settings as a flat TOML
// document. A missing or broken file never fails startup; it loads as
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"murmur/log"
)

type Config struct {
	Hotkey        string `toml:"hotkey"`
	Model         string `toml:"model"`
	Language      string `toml:"language"`
	Compute       string `toml:"compute"`
	Microphone    string `toml:"microphone"`
	Notifications bool   `toml:"notifications"`
	Sound         bool   `toml:"sound"`
	AutoPaste     bool   `toml:"auto_paste"`
}

func Default() Config {
	return Config{
		Hotkey:        "ctrl+tab",
		Model:         "base.en",
		Language:      "en",
		Compute:       "auto",
		Notifications: true,
		Sound:         true,
		AutoPaste:     true,
	}
}

// Dir returns the config directory, created on demand.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, "murmur")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file. Absent keys keep their defaults; a
// missing or unparseable file yields pure defaults with a warning.
func Load(logger *log.Logger) Config {
	cfg := Default()
	path, err := Path()
	if err != nil {
		logger.Warnf("using default config: %v", err)
		return cfg
	}
	if _, err := os.Stat(path); err != nil {
		return cfg
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		logger.Warnf("config %s unreadable, using defaults: %v", path, err)
		return Default()
	}
	return cfg
}

// Save writes the config file, creating the directory if needed.
func (c Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
