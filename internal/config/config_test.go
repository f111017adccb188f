package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Reflection.TimeInterval() != 5*time.Minute {
		t.Errorf("expected 300s interval, got %v", cfg.Reflection.TimeInterval())
	}
	if cfg.Reflection.MessageThreshold != 5 {
		t.Errorf("expected threshold 5, got %d", cfg.Reflection.MessageThreshold)
	}
	if cfg.Reflection.PollTick() != 10*time.Second {
		t.Errorf("expected 10s tick, got %v", cfg.Reflection.PollTick())
	}
	if cfg.Reflection.BatchLimit != 20 {
		t.Errorf("expected batch limit 20, got %d", cfg.Reflection.BatchLimit)
	}
	if cfg.Reflection.DuplicateThreshold != 0.85 {
		t.Errorf("expected threshold 0.85, got %v", cfg.Reflection.DuplicateThreshold)
	}
	if cfg.Oracle.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected default model %q", cfg.Oracle.Model)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database_path: /tmp/led.db
reflection:
  time_interval: 60
  message_threshold: 2
oracle:
  model: gemini-2.5-pro
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/led.db" {
		t.Errorf("database_path not applied: %q", cfg.DatabasePath)
	}
	if cfg.Reflection.TimeIntervalSec != 60 || cfg.Reflection.MessageThreshold != 2 {
		t.Errorf("reflection overrides not applied: %+v", cfg.Reflection)
	}
	// Untouched fields keep their defaults.
	if cfg.Reflection.BatchLimit != 20 {
		t.Errorf("expected default batch limit, got %d", cfg.Reflection.BatchLimit)
	}
	if cfg.Oracle.Model != "gemini-2.5-pro" {
		t.Errorf("oracle model not applied: %q", cfg.Oracle.Model)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Reflection.MessageThreshold != 5 {
		t.Errorf("expected defaults, got %+v", cfg.Reflection)
	}
}

func TestResolveAPIKey(t *testing.T) {
	o := OracleConfig{APIKey: "from-config"}
	if o.ResolveAPIKey() != "from-config" {
		t.Error("explicit key must win")
	}

	t.Setenv("GOOGLE_API_KEY", "from-google-env")
	t.Setenv("GEMINI_API_KEY", "from-gemini-env")
	if (OracleConfig{}).ResolveAPIKey() != "from-google-env" {
		t.Error("GOOGLE_API_KEY takes precedence")
	}

	t.Setenv("GOOGLE_API_KEY", "")
	if (OracleConfig{}).ResolveAPIKey() != "from-gemini-env" {
		t.Error("GEMINI_API_KEY is the last fallback")
	}
}
