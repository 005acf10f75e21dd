// Package config loads engine tunables from a YAML file, following the
// teacher's internal/config package conventions.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ambient tunables for the CLI-hosted engine. It never
// overrides the fixed Engine Configuration constants from spec.md §3 — only
// where the engine's ambient scaffolding reads its files and logs.
type Config struct {
	DefaultEndpoint string `yaml:"defaultEndpoint"`
	LogLevel        string `yaml:"logLevel"`
	IdentityPath    string `yaml:"identityPath"`
	SettingsPath    string `yaml:"settingsPath"`
	PresetsPath     string `yaml:"presetsPath"`
}

// Default returns the baseline configuration used when no config file is
// present, with paths rooted under dir (typically the user's config
// directory).
func Default(dir string) Config {
	return Config{
		LogLevel:     "info",
		IdentityPath: filepath.Join(dir, "identity.json"),
		SettingsPath: filepath.Join(dir, "settings.json"),
		PresetsPath:  filepath.Join(dir, "presets.yaml"),
	}
}

// Load reads and parses the YAML config file at path, normalizing it
// against Default(filepath.Dir(path)) for any field left blank. A missing
// file is not an error: it yields the defaults outright.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Config{}, err
	}

	return merge(cfg, parsed), nil
}

// merge overlays any non-blank field of override onto base.
func merge(base, override Config) Config {
	if strings.TrimSpace(override.DefaultEndpoint) != "" {
		base.DefaultEndpoint = override.DefaultEndpoint
	}
	if strings.TrimSpace(override.LogLevel) != "" {
		base.LogLevel = override.LogLevel
	}
	if strings.TrimSpace(override.IdentityPath) != "" {
		base.IdentityPath = override.IdentityPath
	}
	if strings.TrimSpace(override.SettingsPath) != "" {
		base.SettingsPath = override.SettingsPath
	}
	if strings.TrimSpace(override.PresetsPath) != "" {
		base.PresetsPath = override.PresetsPath
	}
	return base
}

func dirOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}
	return dir
}
