package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newJSONLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("frame received", "bytes", 42)

			entry := decodeEntry(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "frame received" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["bytes"] != float64(42) {
				t.Errorf("bytes = %v, want 42", entry["bytes"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.With("component", "connection").Info("connected", "addr", "localhost:30000")

	entry := decodeEntry(t, buf)
	if entry["component"] != "connection" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["addr"] != "localhost:30000" {
		t.Errorf("addr = %v", entry["addr"])
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newJSONLogger(t, "error")
	defer SetLevel("info")

	l.Info("hidden")
	if buf.Len() > 0 {
		t.Fatal("info should be filtered at error level")
	}

	SetLevel("debug")
	l.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug should be logged after SetLevel(debug)")
	}
	if got := Level(); got != "debug" {
		t.Errorf("Level() = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"debug", "debug", true},
		{"INFO", "info", true},
		{"warning", "warn", true},
		{" Error ", "error", true},
		{"verbose", "info", false},
		{"", "info", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseLevel(tt.input)
			if (err == nil) != tt.valid {
				t.Errorf("ParseLevel(%q) error = %v, want valid=%v", tt.input, err, tt.valid)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
			}
			SetLevel(tt.input)
			if got := Level(); got != tt.want {
				t.Errorf("Level() after SetLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	defer SetLevel("info")

	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Config{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("authenticated", "user", "xiony")

	out := buf.String()
	if !strings.Contains(out, "authenticated") || !strings.Contains(out, "user=xiony") {
		t.Errorf("text output = %q", out)
	}
}

func TestLogger_RedactsThroughHandler(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.Info("login", "password", "hunter2", "value", "hbtk_abcdefghijklmnop")

	entry := decodeEntry(t, buf)
	if entry["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	if entry["value"] != "hbtk_abc...nop" {
		t.Errorf("value = %v, want masked token", entry["value"])
	}
}

func TestLogger_SpanIDs(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	}))

	l.WithContext(ctx).With("conn_id", "c-1").Info("connected")
	entry := decodeEntry(t, buf)
	if entry["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" || entry["span_id"] != "00f067aa0ba902b7" {
		t.Errorf("entry = %v, want span ids", entry)
	}
	if entry["conn_id"] != "c-1" {
		t.Errorf("conn_id = %v", entry["conn_id"])
	}

	buf.Reset()
	l.Info("no span")
	if entry := decodeEntry(t, buf); entry["trace_id"] != nil {
		t.Errorf("trace_id = %v, want absent", entry["trace_id"])
	}
}

func TestDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	l, buf := newJSONLogger(t, "info")
	SetDefault(l)
	Default().Info("through default")
	if buf.Len() == 0 {
		t.Error("Default() should return the logger passed to SetDefault")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("discarded")
	l.With("k", "v").WithContext(context.Background()).Info("discarded")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "text" || cfg.Output == nil {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}
