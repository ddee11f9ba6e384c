package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBPath != "data/demovote.db" {
		t.Errorf("addr/db = %q %q", cfg.HTTPAddr, cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
	if cfg.ImageMaxEdge != 400 || cfg.ImageQuality != 0.7 {
		t.Errorf("image = %d %v", cfg.ImageMaxEdge, cfg.ImageQuality)
	}
	if cfg.PulseDelay != 500*time.Millisecond {
		t.Errorf("pulse delay = %v", cfg.PulseDelay)
	}
	if cfg.ImageMaxPixels != 40_000_000 || cfg.SessionLimit != 1000 {
		t.Errorf("max pixels / session limit = %d %d", cfg.ImageMaxPixels, cfg.SessionLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("IMAGE_MAX_EDGE", "256")
	t.Setenv("PULSE_DELAY", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.ImageMaxEdge != 256 || cfg.PulseDelay != time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct{ key, value string }{
		{"IMAGE_QUALITY", "0"},
		{"IMAGE_QUALITY", "1.5"},
		{"IMAGE_MAX_EDGE", "0"},
		{"IMAGE_MAX_PIXELS", "0"},
		{"SESSION_LIMIT", "0"},
		{"AUDIO_SAMPLE_RATE", "100"},
		{"PULSE_DELAY", "banana"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
