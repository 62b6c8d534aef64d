package logger

import (
	"log/slog"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"session token masked", slog.String("value", "hbtk_ABCDEFGHIJKLMNOP"), "hbtk_ABC...NOP"},
		{"ticket masked", slog.String("sso", "hbtc_01HZZZZZZZZZZZZZ"), "hbtc_01H...ZZZ"},
		{"short token", slog.String("value", "hbtk_abc"), redactedValue},
		{"prefix wins over key", slog.String("token", "hbtk_ABCDEFGHIJ"), "hbtk_ABC...HIJ"},
		{"password key", slog.String("password", "hunter2"), redactedValue},
		{"ticket key", slog.String("sso_ticket", "raw"), redactedValue},
		{"credential key", slog.String("Credentials", "raw"), redactedValue},
		{"empty sensitive value", slog.String("password", ""), ""},
		{"normal value", slog.String("user", "xiony"), "xiony"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redact(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("redact() = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedact_NonString(t *testing.T) {
	a := redact(slog.Int("token_ttl_seconds", 86400))
	if a.Value.Int64() != 86400 {
		t.Errorf("non-string values should pass through, got %v", a.Value)
	}
}

func TestRedact_Group(t *testing.T) {
	g := slog.Group("auth", slog.String("user", "xiony"), slog.String("password", "pw"))

	attrs := redact(g).Value.Group()
	if attrs[0].Value.String() != "xiony" {
		t.Errorf("user = %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != redactedValue {
		t.Errorf("password = %q, want redacted", attrs[1].Value.String())
	}
}

func TestIsSecretKey(t *testing.T) {
	for _, key := range []string{"password", "SSO_Token", "ticket", "client_secret"} {
		if !IsSecretKey(key) {
			t.Errorf("IsSecretKey(%q) = false", key)
		}
	}
	for _, key := range []string{"user", "addr", "conn_id"} {
		if IsSecretKey(key) {
			t.Errorf("IsSecretKey(%q) = true", key)
		}
	}
}
