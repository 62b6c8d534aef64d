package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// DefaultMaxLoginAttempts is the number of failed logins allowed before
// Authenticate refuses further attempts.
const DefaultMaxLoginAttempts = 3

// Status strings reported by Authenticator.Status.
const (
	StatusNotAuthenticated = "Not authenticated"
	StatusTokenExpired     = "Token expired"
)

// Authenticator coordinates login state for one connection.
//
// It is either unauthenticated (no token) or authenticated (a token is
// held). Token validity is evaluated lazily against the clock, so an
// authenticated coordinator whose token expired reports "Token expired"
// until the next Authenticate or Logout.
type Authenticator struct {
	mu sync.Mutex

	issuer      TicketIssuer
	now         func() time.Time
	maxAttempts int
	tokenTTL    time.Duration
	logger      logger.Logger

	token    *domain.SessionToken
	username string
	attempts int
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock sets the time source used for token issuance and validity.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithMaxAttempts sets the failed login budget. Values below 1 are ignored.
func WithMaxAttempts(n int) AuthenticatorOption {
	return func(a *Authenticator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithTokenTTL sets the session token validity window.
func WithTokenTTL(ttl time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.tokenTTL = ttl
		}
	}
}

// WithTicketIssuer replaces the default LocalTicketIssuer.
func WithTicketIssuer(issuer TicketIssuer) AuthenticatorOption {
	return func(a *Authenticator) {
		if issuer != nil {
			a.issuer = issuer
		}
	}
}

// WithAuthLogger sets the logger.
func WithAuthLogger(l logger.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAuthenticator creates an unauthenticated Authenticator.
func NewAuthenticator(opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		now:         time.Now,
		maxAttempts: DefaultMaxLoginAttempts,
		tokenTTL:    domain.DefaultTokenTTL,
		logger:      logger.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.issuer == nil {
		a.issuer = NewLocalTicketIssuer()
	}
	a.logger = a.logger.With("component", "auth")

	return a
}

// Authenticate logs in with username and password.
//
// It succeeds without side effects while a valid token is held. Once the
// failed-attempt budget is spent it fails with ErrAttemptsExceeded until
// Logout resets the counter. Blank credentials and ticket issuer failures
// count as failed attempts.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.token != nil && a.token.IsValidAt(now) {
		a.logger.Debug("already authenticated", "user", a.username)
		return nil
	}

	if a.attempts >= a.maxAttempts {
		a.logger.Warn("login refused, attempts exhausted", "attempts", a.attempts, "max", a.maxAttempts)
		return domain.ErrAttemptsExceeded.WithDetailsf("%d/%d", a.attempts, a.maxAttempts)
	}

	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		a.attempts++
		a.logger.Warn("invalid credentials provided", "attempts", a.attempts)
		return domain.ErrInvalidCredentials.WithDetails("username and password are required")
	}

	ticket, err := a.issuer.Issue(ctx, username, password)
	if err != nil {
		a.attempts++
		a.logger.Warn("ticket issue failed", "user", username, "attempts", a.attempts, "error", err)
		return fmt.Errorf("issue ticket: %w", err)
	}

	if a.token != nil {
		a.token.Revoke()
	}
	a.token = domain.IssueSessionToken(username, ticket, now, a.tokenTTL)
	a.username = username
	a.attempts = 0

	a.logger.Info("user authenticated", "user", username, "expires_at", a.token.ExpiresAt)
	return nil
}

// Logout revokes and clears the current token and resets the attempt
// counter. Without a token it does nothing and reports false.
func (a *Authenticator) Logout() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		return false
	}

	a.attempts = 0
	a.token.Revoke()
	a.logger.Info("user logged out", "user", a.username)
	a.token = nil
	a.username = ""
	return true
}

// RefreshToken renews the ticket and restarts the token validity window.
// It fails with ErrNoValidToken when no valid token is held.
func (a *Authenticator) RefreshToken(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.token == nil || !a.token.IsValidAt(now) {
		return domain.ErrNoValidToken
	}

	ticket, err := a.issuer.Renew(ctx, a.username, a.token.Value)
	if err != nil {
		return fmt.Errorf("renew ticket: %w", err)
	}
	if err := a.token.Refresh(ticket, now); err != nil {
		return err
	}

	a.logger.Info("token refreshed", "user", a.username, "expires_at", a.token.ExpiresAt)
	return nil
}

// ApplyResponse applies the server's answer to the last login.
//
// On success the server-assigned user id is recorded on the token. Any
// other status ends the local session, counts as a failed attempt and
// returns ErrAuthRejected.
func (a *Authenticator) ApplyResponse(resp *protocol.AuthenticationResponse) error {
	if resp == nil {
		return domain.ErrInvalidArgument.WithDetails("nil response")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		return domain.ErrNotAuthenticated.WithDetails("no pending login")
	}

	if resp.Successful() {
		a.token.UserID = resp.UserID
		a.logger.Info("server accepted login", "user", a.username, "user_id", resp.UserID)
		return nil
	}

	a.token.Revoke()
	a.logger.Warn("server rejected login", "user", a.username, "status", resp.Status.String(), "reason", resp.Message)
	a.token = nil
	a.username = ""
	a.attempts++

	detail := resp.Status.Description()
	if resp.Message != "" {
		detail = resp.Message
	}
	return domain.ErrAuthRejected.WithDetailsf("%s: %s", resp.Status, detail)
}

// IsAuthenticated reports whether a valid token is held.
func (a *Authenticator) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != nil && a.token.IsValidAt(a.now())
}

// CurrentUsername returns the logged-in user, or "" when none.
func (a *Authenticator) CurrentUsername() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.username
}

// CurrentToken returns a copy of the current token, or nil.
func (a *Authenticator) CurrentToken() *domain.SessionToken {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token.Clone()
}

// LoginAttempts returns the number of consecutive failed logins.
func (a *Authenticator) LoginAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

// MaxAttempts returns the failed login budget.
func (a *Authenticator) MaxAttempts() int {
	return a.maxAttempts
}

// RemainingLoginAttempts returns how many failed logins are still allowed.
func (a *Authenticator) RemainingLoginAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return max(0, a.maxAttempts-a.attempts)
}

// Status describes the authentication state for display.
func (a *Authenticator) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		return StatusNotAuthenticated
	}
	now := a.now()
	if !a.token.IsValidAt(now) {
		return StatusTokenExpired
	}
	return fmt.Sprintf("Authenticated as: %s (Token expires in %s)",
		a.username, domain.FormatRemaining(a.token.RemainingTimeAt(now)))
}
