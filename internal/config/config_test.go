package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
network: sepolia
price:
  fallback_usd: 1800
monitor:
  interval_seconds: 30
`
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Price.FallbackUSD != 1800 {
		t.Errorf("Expected fallback 1800, got %.2f", cfg.Price.FallbackUSD)
	}
	if cfg.Monitor.IntervalSeconds != 30 {
		t.Errorf("Expected interval 30, got %d", cfg.Monitor.IntervalSeconds)
	}
	if cfg.DataFile != "user_data.json" {
		t.Errorf("Expected default data file, got %s", cfg.DataFile)
	}
	if cfg.Price.CacheTTLSeconds != 60 || cfg.Session.TTLHours != 24 {
		t.Errorf("Defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
monitor:
  interval_seconds: -5
`
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(p); err == nil {
		t.Error("Expected validation error for negative interval")
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}
