package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the quill-server configuration file.
type Config struct {
	Addr            string   `toml:"addr"`
	APIPort         int      `toml:"api_port"`
	PingIntervalSec int      `toml:"ping_interval_seconds"`
	JournalPath     string   `toml:"journal_path"`
	JournalTTLHours int      `toml:"journal_ttl_hours"`
	Encodings       []string `toml:"encodings"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:            ":4242",
		APIPort:         9090,
		PingIntervalSec: 30,
		JournalPath:     "./data/pushes.db",
		JournalTTLHours: 7 * 24,
		Encodings:       []string{"json", "raw"},
	}
}

// LoadConfig reads a TOML config file, filling in defaults for
// anything omitted.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateConfig rejects configurations the server cannot run with.
func ValidateConfig(cfg Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("config: addr must not be empty")
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("config: api_port %d out of range", cfg.APIPort)
	}
	if cfg.PingIntervalSec <= 0 {
		return fmt.Errorf("config: ping_interval_seconds must be positive")
	}
	if cfg.JournalTTLHours < 0 {
		return fmt.Errorf("config: journal_ttl_hours must not be negative")
	}
	if len(cfg.Encodings) == 0 {
		return fmt.Errorf("config: at least one encoding is required")
	}
	return nil
}
