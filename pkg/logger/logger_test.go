package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	testCases := []struct {
		level   string
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{level: "", enabled: zapcore.InfoLevel, off: zapcore.DebugLevel},
		{level: "debug", enabled: zapcore.DebugLevel, off: zapcore.DebugLevel - 1},
		{level: "warn", enabled: zapcore.WarnLevel, off: zapcore.InfoLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			l, err := New(tc.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tc.enabled) {
				t.Fatalf("expected %s enabled", tc.enabled)
			}
			if l.Core().Enabled(tc.off) {
				t.Fatalf("expected %s disabled", tc.off)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
