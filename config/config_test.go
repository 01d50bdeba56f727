package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != 3000 || cfg.CORSOrigin != "*" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AssistEnabled || cfg.ClientAuthBall || cfg.EnableTestHooks {
		t.Fatalf("feature flags should default off: %+v", cfg)
	}
	if cfg.ClientAuthWindow != 150*time.Millisecond {
		t.Fatalf("ClientAuthWindow = %v", cfg.ClientAuthWindow)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                  "0",
		"CORS_ORIGIN":           "http://localhost:5173",
		"ASSIST_ENABLED":        "1",
		"ASSIST_PROB":           "1",
		"CLIENT_AUTH_BALL":      "true",
		"CLIENT_AUTH_WINDOW_MS": "80",
		"ENABLE_TEST_HOOKS":     "yes",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != 0 || cfg.CORSOrigin != "http://localhost:5173" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.AssistEnabled || cfg.AssistProb != 1 || !cfg.ClientAuthBall || !cfg.EnableTestHooks {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.ClientAuthWindow != 80*time.Millisecond {
		t.Fatalf("ClientAuthWindow = %v", cfg.ClientAuthWindow)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	if _, err := FromEnv(envMap(map[string]string{"PORT": "abc"})); err == nil {
		t.Fatal("expected error for non-numeric PORT")
	}
	if _, err := FromEnv(envMap(map[string]string{"ASSIST_PROB": "1.5"})); err == nil {
		t.Fatal("expected error for ASSIST_PROB out of range")
	}
}
