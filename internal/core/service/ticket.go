package service

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/pkg/token"
)

// TicketIssuer obtains SSO tickets for a user.
//
// A ticket is the secret a session token is derived from. Implementations
// backed by a remote identity provider should honor ctx cancellation.
type TicketIssuer interface {
	// Issue verifies the credentials and returns a fresh ticket.
	Issue(ctx context.Context, username, password string) (string, error)

	// Renew returns a new ticket for a user who holds a valid session
	// token, without asking for the password again.
	Renew(ctx context.Context, username, tokenValue string) (string, error)
}

// LocalTicketIssuer simulates SSO locally.
//
// Tickets have the form hbtc_<ULID>.<proof>, where the ULID is monotonic
// per issuer and the proof is an Argon2id digest of the password salted
// with the username and ULID. Any non-empty credentials are accepted.
type LocalTicketIssuer struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewLocalTicketIssuer creates a LocalTicketIssuer.
func NewLocalTicketIssuer() *LocalTicketIssuer {
	return &LocalTicketIssuer{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Issue implements TicketIssuer.
func (i *LocalTicketIssuer) Issue(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	id, err := i.nextID()
	if err != nil {
		return "", err
	}

	return formatTicket(id, token.Proof(password, username, id.String())), nil
}

// Renew implements TicketIssuer.
func (i *LocalTicketIssuer) Renew(ctx context.Context, username, tokenValue string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(tokenValue, domain.TokenPrefix) {
		return "", domain.ErrNoValidToken.WithDetails("malformed token value")
	}

	id, err := i.nextID()
	if err != nil {
		return "", err
	}
	return formatTicket(id, token.Derive(username, tokenValue, id.String())), nil
}

func (i *LocalTicketIssuer) nextID() (ulid.ULID, error) {
	// Monotonic entropy is not safe for concurrent use.
	i.mu.Lock()
	defer i.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(i.now()), i.entropy)
	if err != nil {
		return ulid.ULID{}, domain.ErrInternal.WithDetails("generate ticket id").WithCause(err)
	}
	return id, nil
}

func formatTicket(id ulid.ULID, proof string) string {
	return domain.TicketPrefix + id.String() + "." + proof
}

// ParseTicketID extracts the ULID embedded in a ticket.
// Format: hbtc_<26-char ULID>.<proof>
func ParseTicketID(ticket string) (ulid.ULID, error) {
	body, ok := strings.CutPrefix(ticket, domain.TicketPrefix)
	if !ok {
		return ulid.ULID{}, domain.ErrInvalidArgument.WithDetails("ticket prefix")
	}
	idPart, _, ok := strings.Cut(body, ".")
	if !ok {
		return ulid.ULID{}, domain.ErrInvalidArgument.WithDetails("ticket proof missing")
	}
	id, err := ulid.Parse(idPart)
	if err != nil {
		return ulid.ULID{}, domain.ErrInvalidArgument.WithDetails("ticket id").WithCause(err)
	}
	return id, nil
}
