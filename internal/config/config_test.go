package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	minimal := "server:\n  host: \"127.0.0.1\"\n"
	if err := os.WriteFile(path, []byte(minimal), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Rooms.TTLMinutes != 60 {
		t.Fatalf("default room TTL: got %d", cfg.Rooms.TTLMinutes)
	}
	if cfg.Diarization.SilenceThreshold != 0.5 {
		t.Fatalf("default silence threshold: got %v", cfg.Diarization.SilenceThreshold)
	}
	if cfg.Recording.ListRetries != 4 || cfg.Recording.ListDelaySeconds != 6 {
		t.Fatalf("default listing retry policy: %d x %ds", cfg.Recording.ListRetries, cfg.Recording.ListDelaySeconds)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("recording:\n  base_url: \"https://api.example.com\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RECORDING_API_KEY", "env-key")
	t.Setenv("RECORDING_API_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Recording.APIKey != "env-key" || cfg.Recording.APISecret != "env-secret" {
		t.Fatalf("env secrets not applied: %+v", cfg.Recording)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
