package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

const redactedValue = "***REDACTED***"

// Keys whose string values never reach the output.
var secretKeys = []string{"password", "pass", "secret", "token", "ticket", "credential"}

// redact masks session tokens and SSO tickets wherever they appear and
// hides any other non-empty string logged under a secret-looking key.
func redact(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if isCredential(v) {
			return slog.String(a.Key, domain.MaskToken(v))
		}
		if v != "" && IsSecretKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func isCredential(v string) bool {
	return strings.HasPrefix(v, domain.TokenPrefix) || strings.HasPrefix(v, domain.TicketPrefix)
}

// IsSecretKey reports whether values logged under key are hidden.
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
