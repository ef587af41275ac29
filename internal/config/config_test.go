package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "zenfeed.db" || cfg.SyncConcurrency != 8 || cfg.FetchTimeout != 20*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SyncSchedule != "@every 30m" || cfg.BriefingLimit != 15 || len(cfg.BriefingCommand) != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ZENFEED_DB_PATH", " /tmp/feeds.db ")
	t.Setenv("ZENFEED_SYNC_CONCURRENCY", "0")
	t.Setenv("ZENFEED_HOST_INTERVAL", "2s")
	t.Setenv("ZENFEED_BRIEFING_COMMAND", "gemini --model flash")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "/tmp/feeds.db" {
		t.Fatalf("expected trimmed db path, got %q", cfg.DBPath)
	}
	if cfg.SyncConcurrency != 1 {
		t.Fatalf("expected concurrency to be clamped, got %d", cfg.SyncConcurrency)
	}
	if cfg.HostInterval != 2*time.Second {
		t.Fatalf("unexpected host interval: %v", cfg.HostInterval)
	}
	if len(cfg.BriefingCommand) != 3 || cfg.BriefingCommand[0] != "gemini" {
		t.Fatalf("unexpected briefing command: %q", cfg.BriefingCommand)
	}
	if cfg.OpenAIAPIKey != "sk-fallback" {
		t.Fatalf("expected unprefixed key fallback, got %q", cfg.OpenAIAPIKey)
	}
}

func TestLoadRejectsEmptyDBPath(t *testing.T) {
	t.Setenv("ZENFEED_DB_PATH", "  ")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty db path")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := (Config{LogLevel: tt.in}).SlogLevel(); got != tt.want {
			t.Fatalf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
