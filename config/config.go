// Package config loads and saves the daemon configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration.
type Config struct {
	// Listen is the HTTP listen address for the alarm API.
	Listen string `yaml:"listen"`

	// Database is the path of the sqlite database file.
	Database string `yaml:"database"`

	// Maintenance is a cron expression for the periodic maintenance job
	// (purge of retired one-shot alarms plus a safety reconcile).
	Maintenance string `yaml:"maintenance"`

	// RetentionDays is how long retired one-shot alarms are kept before
	// the maintenance job purges them.
	RetentionDays int `yaml:"retention_days"`

	// SnoozeMinutes is the default snooze offset when a snooze request
	// doesn't carry one.
	SnoozeMinutes int `yaml:"snooze_minutes"`

	// Mute disables the audio notifier; firings are still logged.
	Mute bool `yaml:"mute"`

	// Debug enables verbose logging and debug HTTP output.
	Debug bool `yaml:"debug"`
}

func Default() *Config {
	return &Config{
		Listen:        "127.0.0.1:8093",
		Database:      "despertador.db",
		Maintenance:   "@hourly",
		RetentionDays: 7,
		SnoozeMinutes: 5,
	}
}

// Normalize fills missing or nonsensical values with defaults so configs
// from older versions keep working.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8093"
	}
	if c.Database == "" {
		c.Database = "despertador.db"
	}
	if c.Maintenance == "" {
		c.Maintenance = "@hourly"
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 7
	}
	if c.SnoozeMinutes <= 0 {
		c.SnoozeMinutes = 5
	}
}

// Load reads the configuration from the given YAML path. A missing file is
// a first run: a default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".despertador-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
