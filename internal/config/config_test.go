package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
sensitivity: 0.7
sniffer:
  interface: "lo"
emitter:
  batch_size: 25
  flush_interval: "2s"
sink:
  type: "nats"
  nats:
    url: "nats://localhost:4222"
    subject: "traffic"
store:
  max_recent: 100
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Sensitivity != 0.7 {
		t.Errorf("Expected sensitivity 0.7, got %f", cfg.Sensitivity)
	}
	if cfg.Sniffer.Interface != "lo" {
		t.Errorf("Expected interface lo, got %s", cfg.Sniffer.Interface)
	}
	if cfg.Emitter.BatchSize != 25 || cfg.Emitter.FlushInterval != "2s" {
		t.Errorf("Emitter config not applied: %+v", cfg.Emitter)
	}
	if cfg.Sink.Type != "nats" || cfg.Sink.NATS.Subject != "traffic" {
		t.Errorf("Sink config not applied: %+v", cfg.Sink)
	}
	if cfg.Store.MaxRecent != 100 {
		t.Errorf("Expected max_recent 100, got %d", cfg.Store.MaxRecent)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "sniffer:\n  interface: eth0\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Sensitivity != 0.5 {
		t.Errorf("Expected default sensitivity 0.5, got %f", cfg.Sensitivity)
	}
	if cfg.Emitter.BatchSize != 10 || cfg.Emitter.FlushInterval != "1s" {
		t.Errorf("Emitter defaults not applied: %+v", cfg.Emitter)
	}
	if cfg.Store.MaxRecent != 50 {
		t.Errorf("Expected default window of 50, got %d", cfg.Store.MaxRecent)
	}
	if cfg.Sink.Type != "http" {
		t.Errorf("Expected default sink type http, got %s", cfg.Sink.Type)
	}
	if cfg.Sniffer.SnapshotLen != 1600 {
		t.Errorf("Expected default snapshot length 1600, got %d", cfg.Sniffer.SnapshotLen)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "sensitivity: [not a float")); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
