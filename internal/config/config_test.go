package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	policy := cfg.AttemptPolicy()
	if policy.MaxAttempts != DefaultMaxAttempts || policy.DuplicateWindow != DefaultDuplicateWindow {
		t.Fatalf("unexpected default policy %+v", policy)
	}
	if cfg.Scoring.FuzzyThreshold != DefaultFuzzyThreshold || cfg.Scoring.PassMark != DefaultPassMark {
		t.Fatalf("unexpected scoring defaults %+v", cfg.Scoring)
	}
}

func TestLoadPolicy(t *testing.T) {
	cfg, err := Load(writeConfig(t, "policy:\n  max_attempts: 5\n  duplicate_window: 2s\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	policy := cfg.AttemptPolicy()
	if policy.MaxAttempts != 5 || policy.DuplicateWindow != 2*time.Second {
		t.Fatalf("unexpected policy %+v", policy)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	bodies := []string{
		"policy:\n  max_attempts: 1000\n",
		"policy:\n  max_attempts: -1\n",
		"policy:\n  duplicate_window: -5s\n",
		"policy:\n  duplicate_window: soon\n",
		"database:\n  driver: mysql\n  dsn: x\n",
		"database:\n  driver: sqlite\n",
		"scoring:\n  fuzzy_threshold: 120\n",
	}
	for _, body := range bodies {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}

func TestLoadReadsSecretsFromEnv(t *testing.T) {
	t.Setenv("QUIZ_JWT_SECRET", "from-env")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	cfg, err := Load(writeConfig(t, "auth:\n  jwt_secret: from-file\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Mail.SendGridAPIKey != "SG.key" {
		t.Fatalf("expected env overrides, got %+v %+v", cfg.Auth, cfg.Mail)
	}
	if cfg.Auth.AdminUsername != "admin" {
		t.Fatalf("expected default admin username, got %q", cfg.Auth.AdminUsername)
	}
}
