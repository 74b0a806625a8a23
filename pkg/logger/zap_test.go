package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContext(t *testing.T) {
	l := NewNop()
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Errorf("FromContext() returned a different logger")
	}

	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext() on empty context should fall back to a no-op logger")
	}
}

func TestZapConfigFormat(t *testing.T) {
	if got := zapConfig("json").Encoding; got != "json" {
		t.Errorf("zapConfig(json).Encoding = %q, want json", got)
	}
	if got := zapConfig("console").Encoding; got != "console" {
		t.Errorf("zapConfig(console).Encoding = %q, want console", got)
	}
	if got := zapConfig("").Encoding; got != "console" {
		t.Errorf("zapConfig(\"\").Encoding = %q, want console", got)
	}
}
