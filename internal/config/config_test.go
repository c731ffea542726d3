package config

import "testing"

var keys = []string{
	"XLS2ASS_PORT", "XLS2ASS_MAX_UPLOAD_MB", "NATS_URL", "NATS_TOKEN", "XLS2ASS_SUBJECT",
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range keys {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.MaxUploadBytes() != 32<<20 {
		t.Errorf("expected 32 MiB upload limit, got %d", cfg.MaxUploadBytes())
	}
	if cfg.NatsURL != "" {
		t.Errorf("expected NATS disabled by default, got %s", cfg.NatsURL)
	}
	if cfg.Subject != "xls2ass.conversion.completed" {
		t.Errorf("unexpected default subject %s", cfg.Subject)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("XLS2ASS_PORT", "9000")
	t.Setenv("XLS2ASS_MAX_UPLOAD_MB", "5")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("NATS_TOKEN", "secret")
	t.Setenv("XLS2ASS_SUBJECT", "subs.done")

	cfg := Load()

	if cfg.Port != 9000 || cfg.MaxUploadBytes() != 5<<20 {
		t.Errorf("unexpected port/limit: %d %d", cfg.Port, cfg.MaxUploadBytes())
	}
	if cfg.NatsURL != "nats://localhost:4222" || cfg.NatsToken != "secret" {
		t.Errorf("unexpected nats settings: %+v", cfg)
	}
	if cfg.Subject != "subs.done" {
		t.Errorf("unexpected subject %s", cfg.Subject)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("XLS2ASS_PORT", "not-a-port")
	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Port)
	}
}
