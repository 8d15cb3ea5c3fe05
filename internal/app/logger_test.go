package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestLogLevelMapping(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		cfg := &Config{LogLevel: tc.level}
		if got := logLevel(cfg); got != tc.want {
			t.Fatalf("level %q: expected %v, got %v", tc.level, tc.want, got)
		}
	}

	if got := logLevel(nil); got != slog.LevelInfo {
		t.Fatalf("nil config: expected info, got %v", got)
	}
}

func TestNewLoggerHonoursFormat(t *testing.T) {
	ctx := context.Background()

	jsonLogger := NewLogger(&Config{LogFormat: "json", LogLevel: "warn"})
	if jsonLogger.Enabled(ctx, slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !jsonLogger.Enabled(ctx, slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}

	textLogger := NewLogger(&Config{LogFormat: "pretty", LogLevel: "debug"})
	if !textLogger.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("debug should be enabled at debug level")
	}
}
