package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
	if cfg.SendBuffer != 32 {
		t.Fatalf("SendBuffer = %d, want 32", cfg.SendBuffer)
	}
	if cfg.JoinIncludeSelf || cfg.BlockIncludeSelf {
		t.Fatalf("inclusion policy should default to exclude sender: %+v", cfg)
	}
	if cfg.SessionRetentionMins != 15 {
		t.Fatalf("SessionRetentionMins = %d, want 15", cfg.SessionRetentionMins)
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JOIN_INCLUDE_SELF", "true")
	t.Setenv("SESSION_RETENTION_MINUTES", "0")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if !cfg.JoinIncludeSelf {
		t.Fatalf("JoinIncludeSelf not parsed: %+v", cfg)
	}
	if cfg.SessionRetentionMins != 0 {
		t.Fatalf("SessionRetentionMins = %d, want 0", cfg.SessionRetentionMins)
	}
}

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.WSBase != "ws://localhost:8080/ws" {
		t.Fatalf("WSBase = %q, want ws://localhost:8080/ws", cfg.WSBase)
	}
	if cfg.PlayerName != "sim" {
		t.Fatalf("PlayerName = %q, want sim", cfg.PlayerName)
	}
}
