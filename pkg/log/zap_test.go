package log

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFields(t *testing.T) {
	ctx := WithRunID(WithUserID(context.Background(), "u1"), "run_1")
	kv := fields(ctx)
	if len(kv) != 4 {
		t.Fatalf("expected 4 entries, got %v", kv)
	}
	if kv[0] != "run_id" || kv[1] != "run_1" || kv[2] != "user_id" || kv[3] != "u1" {
		t.Errorf("unexpected fields: %v", kv)
	}

	if got := fields(context.Background()); len(got) != 0 {
		t.Errorf("expected no fields, got %v", got)
	}
}

func TestInit(t *testing.T) {
	l := Init(ZapConfig{Level: "debug", Mode: ModeDevelopment, Encoding: EncodingConsole})
	l.Infof(WithRequestID(context.Background(), "req-1"), "hello %s", "world")

	j := Init(ZapConfig{Level: "info", Mode: ModeProduction, Encoding: EncodingJSON})
	j.Info(context.Background(), "json logger")

	NewNop().Error(context.Background(), "discarded")
}
