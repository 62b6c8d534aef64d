package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/habbo-go/pkg/token"
)

// Token constants.
const (
	// TokenPrefix is the prefix for session token values (sensitive).
	TokenPrefix = "hbtk_"

	// TicketPrefix is the prefix for SSO tickets (sensitive).
	TicketPrefix = "hbtc_"

	// DefaultTokenTTL is the validity window of a freshly issued or
	// refreshed session token.
	DefaultTokenTTL = 24 * time.Hour
)

// SessionToken is the credential held by an authenticated session.
//
// Validity is evaluated lazily against the clock on every query; there is
// no background expiry. A revoked token can never become valid again.
// SessionToken is not safe for concurrent use; its owner serializes access.
type SessionToken struct {
	// Owner is the username the token was issued to.
	Owner string `json:"owner"`

	// Value is the opaque token sent to the server (format: hbtk_...).
	Value string `json:"-"`

	// UserID is the server-assigned user id (0 until the server confirms).
	UserID int32 `json:"user_id"`

	// IssuedAt is the start of the current validity window.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is the end of the current validity window (inclusive).
	ExpiresAt time.Time `json:"expires_at"`

	// Revoked is set by Revoke and never cleared.
	Revoked bool `json:"revoked"`

	ttl time.Duration
}

// IssueSessionToken creates a token for owner from an SSO ticket.
// A non-positive ttl selects DefaultTokenTTL.
func IssueSessionToken(owner, ticket string, now time.Time, ttl time.Duration) *SessionToken {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	t := &SessionToken{
		Owner: owner,
		ttl:   ttl,
	}
	t.reset(ticket, now)
	return t
}

// DeriveTokenValue computes the token value for (owner, ticket, issuedAt).
// The result is deterministic; uniqueness relies on the ticket.
func DeriveTokenValue(owner, ticket string, issuedAt time.Time) string {
	return TokenPrefix + token.Derive(owner, ticket, strconv.FormatInt(issuedAt.UnixNano(), 10))
}

func (t *SessionToken) reset(ticket string, now time.Time) {
	t.IssuedAt = now
	t.ExpiresAt = now.Add(t.ttl)
	t.Value = DeriveTokenValue(t.Owner, ticket, now)
}

// IsValidAt reports whether the token is usable at the given instant.
func (t *SessionToken) IsValidAt(now time.Time) bool {
	return !t.Revoked && !now.After(t.ExpiresAt)
}

// IsValid reports whether the token is usable now.
func (t *SessionToken) IsValid() bool {
	return t.IsValidAt(time.Now())
}

// Refresh replaces the value and restarts the validity window from now.
// Refreshing a revoked token fails with ErrInvalidTokenState.
func (t *SessionToken) Refresh(ticket string, now time.Time) error {
	if t.Revoked {
		return ErrInvalidTokenState.WithDetails("cannot refresh a revoked token")
	}
	t.reset(ticket, now)
	return nil
}

// Revoke invalidates the token permanently. Calling it again is a no-op.
func (t *SessionToken) Revoke() {
	t.Revoked = true
}

// RemainingTimeAt returns max(0, ExpiresAt-now).
func (t *SessionToken) RemainingTimeAt(now time.Time) time.Duration {
	remaining := t.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingTime returns the time left in the validity window.
func (t *SessionToken) RemainingTime() time.Duration {
	return t.RemainingTimeAt(time.Now())
}

// TTL returns the length of the validity window.
func (t *SessionToken) TTL() time.Duration {
	return t.ttl
}

// Clone returns an independent copy of the token.
func (t *SessionToken) Clone() *SessionToken {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// String summarizes the token with its value masked.
func (t *SessionToken) String() string {
	return fmt.Sprintf("SessionToken{owner=%q, user_id=%d, value=%s, valid=%t, remaining=%s}",
		t.Owner, t.UserID, MaskToken(t.Value), t.IsValid(), t.RemainingTime().Truncate(time.Second))
}

// FormatRemaining renders a duration as "<H>h <M>m".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// MaskToken masks a token or ticket for safe logging.
// Example: hbtk_ABC...xyz
func MaskToken(value string) string {
	if len(value) < 10 {
		return "***REDACTED***"
	}
	if strings.HasPrefix(value, TokenPrefix) || strings.HasPrefix(value, TicketPrefix) {
		prefix := value[:5]
		body := value[5:]
		if len(body) > 6 {
			return prefix + body[:3] + "..." + body[len(body)-3:]
		}
		return prefix + "***"
	}
	return "***REDACTED***"
}
