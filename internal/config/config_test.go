package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.IdentityPath != filepath.Join(dir, "identity.json") {
		t.Fatalf("expected identity path rooted in dir, got %q", cfg.IdentityPath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "defaultEndpoint: ws://10.0.0.5:9000\nlogLevel: debug\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultEndpoint != "ws://10.0.0.5:9000" {
		t.Fatalf("expected overridden endpoint, got %q", cfg.DefaultEndpoint)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected overridden log level, got %q", cfg.LogLevel)
	}
	// Unset fields keep their defaults.
	if cfg.SettingsPath != filepath.Join(dir, "settings.json") {
		t.Fatalf("expected default settings path to survive merge, got %q", cfg.SettingsPath)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected malformed YAML to error")
	}
}
