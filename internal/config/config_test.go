// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  path: "./companion.db"
  fallback_dir: "./fallback"

sync:
  debounce: "2s"
  min_interval: "10s"

remote:
  base_url: "https://backend.example.com"
  api_key: "test-api-key"
  access_token: "test-token"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Path != "./companion.db" {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, "./companion.db")
	}
	if cfg.Storage.FallbackDir != "./fallback" {
		t.Errorf("Storage.FallbackDir = %q, want %q", cfg.Storage.FallbackDir, "./fallback")
	}

	if cfg.Sync.Debounce != 2*time.Second {
		t.Errorf("Sync.Debounce = %v, want %v", cfg.Sync.Debounce, 2*time.Second)
	}
	if cfg.Sync.MinInterval != 10*time.Second {
		t.Errorf("Sync.MinInterval = %v, want %v", cfg.Sync.MinInterval, 10*time.Second)
	}

	if cfg.Remote.BaseURL != "https://backend.example.com" {
		t.Errorf("Remote.BaseURL = %q, want %q", cfg.Remote.BaseURL, "https://backend.example.com")
	}
	if cfg.Remote.APIKey != "test-api-key" {
		t.Errorf("Remote.APIKey = %q, want %q", cfg.Remote.APIKey, "test-api-key")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  path: "./companion.db"

remote:
  base_url: "https://backend.example.com"
  api_key: "test-api-key"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sync.Debounce != time.Second {
		t.Errorf("Sync.Debounce default = %v, want %v", cfg.Sync.Debounce, time.Second)
	}
	if cfg.Sync.MinInterval != 3*time.Second {
		t.Errorf("Sync.MinInterval default = %v, want %v", cfg.Sync.MinInterval, 3*time.Second)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format default = %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_COMPANION_API_KEY", "secret-from-env")

	configPath := writeConfig(t, `
storage:
  path: "./companion.db"

remote:
  base_url: "https://backend.example.com"
  api_key: "${TEST_COMPANION_API_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Remote.APIKey != "secret-from-env" {
		t.Errorf("Remote.APIKey = %q, want %q", cfg.Remote.APIKey, "secret-from-env")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  path: "./companion.db"

remote:
  base_url: "https://backend.example.com"
  api_key: "${DEFINITELY_NOT_SET_COMPANION_VAR}"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty api_key, got nil")
	}
	if !strings.Contains(err.Error(), "remote.api_key") {
		t.Errorf("error = %v, want mention of remote.api_key", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
storage:
  path: "./companion.db"

sync:
  debounce: "not-a-duration"

remote:
  base_url: "https://backend.example.com"
  api_key: "test-api-key"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected duration parse error, got nil")
	}
	if !strings.Contains(err.Error(), "debounce") {
		t.Errorf("error = %v, want mention of debounce", err)
	}
}

func TestLoad_MissingStoragePath(t *testing.T) {
	configPath := writeConfig(t, `
remote:
  base_url: "https://backend.example.com"
  api_key: "test-api-key"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "storage.path") {
		t.Errorf("error = %v, want mention of storage.path", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}
