package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
addr = "0.0.0.0:5000"
api_port = 8088
ping_interval_seconds = 10
encodings = ["raw"]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Addr != "0.0.0.0:5000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.APIPort != 8088 {
		t.Errorf("APIPort = %d", cfg.APIPort)
	}
	if cfg.PingIntervalSec != 10 {
		t.Errorf("PingIntervalSec = %d", cfg.PingIntervalSec)
	}
	if len(cfg.Encodings) != 1 || cfg.Encodings[0] != "raw" {
		t.Errorf("Encodings = %v", cfg.Encodings)
	}

	// Omitted keys keep their defaults
	if cfg.JournalTTLHours != DefaultConfig().JournalTTLHours {
		t.Errorf("JournalTTLHours = %d", cfg.JournalTTLHours)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadConfig accepted a missing file")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, `addr = [this is not toml`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted malformed TOML")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty_addr", func(c *Config) { c.Addr = "" }, true},
		{"api_port_zero", func(c *Config) { c.APIPort = 0 }, true},
		{"api_port_too_large", func(c *Config) { c.APIPort = 70000 }, true},
		{"ping_interval_zero", func(c *Config) { c.PingIntervalSec = 0 }, true},
		{"negative_ttl", func(c *Config) { c.JournalTTLHours = -1 }, true},
		{"no_encodings", func(c *Config) { c.Encodings = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
