package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/pkg/token"
)

func TestLocalTicketIssuer_Issue(t *testing.T) {
	issuer := NewLocalTicketIssuer()
	ctx := context.Background()

	t1, err := issuer.Issue(ctx, "xiony", "password123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	t2, err := issuer.Issue(ctx, "xiony", "password123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if !strings.HasPrefix(t1, domain.TicketPrefix) {
		t.Errorf("ticket = %q, want prefix %q", t1, domain.TicketPrefix)
	}
	if t1 == t2 {
		t.Error("tickets should be unique")
	}

	id1, err := ParseTicketID(t1)
	if err != nil {
		t.Fatalf("ParseTicketID() error = %v", err)
	}
	id2, _ := ParseTicketID(t2)
	if id1.Compare(id2) >= 0 {
		t.Errorf("ticket ids should be monotonic: %s then %s", id1, id2)
	}
}

func TestLocalTicketIssuer_Errors(t *testing.T) {
	issuer := NewLocalTicketIssuer()

	if _, err := issuer.Issue(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Issue(empty user) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := issuer.Issue(ctx, "u", "p"); !errors.Is(err, context.Canceled) {
		t.Errorf("Issue(canceled) error = %v", err)
	}
	if _, err := issuer.Renew(ctx, "u", "hbtk_x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Renew(canceled) error = %v", err)
	}

	if _, err := issuer.Renew(context.Background(), "u", "not-a-token"); !errors.Is(err, domain.ErrNoValidToken) {
		t.Errorf("Renew(malformed) error = %v", err)
	}
}

func TestLocalTicketIssuer_Renew(t *testing.T) {
	issuer := NewLocalTicketIssuer()

	ticket, err := issuer.Renew(context.Background(), "xiony", "hbtk_current")
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}
	if _, err := ParseTicketID(ticket); err != nil {
		t.Errorf("renewed ticket %q does not parse: %v", ticket, err)
	}
}

func TestParseTicketID_Invalid(t *testing.T) {
	tests := []string{
		"",
		"hbtk_01ARZ3NDEKTSV4RRFFQ69G5FAV.proof",
		"hbtc_01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"hbtc_not-a-ulid.proof",
	}

	for _, ticket := range tests {
		if _, err := ParseTicketID(ticket); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("ParseTicketID(%q) error = %v, want ErrInvalidArgument", ticket, err)
		}
	}
}

func TestLocalTicketIssuer_ProofBindsCredentials(t *testing.T) {
	issuer := NewLocalTicketIssuer()
	ticket, err := issuer.Issue(context.Background(), "xiony", "password123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	id, err := ParseTicketID(ticket)
	if err != nil {
		t.Fatalf("ParseTicketID() error = %v", err)
	}
	_, proof, _ := strings.Cut(ticket, ".")

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"issued credentials", "xiony", "password123", true},
		{"wrong password", "xiony", "password124", false},
		{"wrong user", "other", "password123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := token.Proof(tt.password, tt.username, id.String()) == proof; got != tt.want {
				t.Errorf("proof match = %v, want %v", got, tt.want)
			}
		})
	}
}
