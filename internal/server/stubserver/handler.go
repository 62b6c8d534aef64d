package stubserver

import (
	"context"
	"crypto/rand"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/pkg/cmap"
)

// Session is a login accepted by the stub server.
type Session struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	UserID   int32     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// UserStore assigns each username a stable user id.
// *storage.UserDirectory satisfies it.
type UserStore interface {
	UserID(ctx context.Context, username string) (int32, error)
}

// memoryUsers is the default UserStore; ids last as long as the process.
type memoryUsers struct {
	ids    *cmap.Map[string, int32]
	nextID atomic.Int32
}

func newMemoryUsers(firstID int32) *memoryUsers {
	u := &memoryUsers{ids: cmap.New[string, int32]()}
	u.nextID.Store(firstID - 1)
	return u
}

func (u *memoryUsers) UserID(_ context.Context, username string) (int32, error) {
	return u.ids.Upsert(normalize(username), 0, func(existing int32, exists bool) int32 {
		if exists {
			return existing
		}
		return u.nextID.Add(1)
	}), nil
}

// Handler computes the server's answer to client messages.
//
// A username keeps the user id its UserStore assigned; each accepted
// login opens a new session.
type Handler struct {
	banned   map[string]bool
	users    UserStore
	sessions *cmap.Map[string, Session]

	entropyMu sync.Mutex
	entropy   io.Reader
}

// NewHandler creates a handler that assigns user ids in memory starting
// at firstUserID and rejects the banned users.
func NewHandler(firstUserID int32, banned []string) *Handler {
	return NewHandlerWithStore(newMemoryUsers(firstUserID), banned)
}

// NewHandlerWithStore creates a handler whose user ids come from users.
func NewHandlerWithStore(users UserStore, banned []string) *Handler {
	h := &Handler{
		banned:   make(map[string]bool, len(banned)),
		users:    users,
		sessions: cmap.New[string, Session](),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
	for _, u := range banned {
		h.banned[normalize(u)] = true
	}
	return h
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Handle returns the reply to msg, or nil when msg needs none.
func (h *Handler) Handle(ctx context.Context, msg protocol.Message) protocol.Message {
	switch m := msg.(type) {
	case *protocol.AuthenticationRequest:
		return h.authenticate(ctx, m)
	default:
		return nil
	}
}

func (h *Handler) authenticate(ctx context.Context, req *protocol.AuthenticationRequest) *protocol.AuthenticationResponse {
	resp := &protocol.AuthenticationResponse{}
	name := normalize(req.Username)

	switch {
	case !strings.HasPrefix(req.SSOToken, domain.TokenPrefix):
		resp.Status = protocol.StatusTokenInvalid
	case name == "":
		resp.Status = protocol.StatusInvalidCredentials
	case h.banned[name]:
		resp.Status = protocol.StatusUserBanned
	default:
		userID, err := h.users.UserID(ctx, name)
		if err != nil {
			resp.Status = protocol.StatusServerError
			break
		}
		s := Session{
			ID:       h.sessionID(),
			Username: req.Username,
			UserID:   userID,
			IssuedAt: time.Now(),
		}
		h.sessions.Set(s.ID, s)

		resp.Status = protocol.StatusSuccess
		resp.UserID = s.UserID
		resp.SessionToken = s.ID
		resp.Message = "Welcome " + req.Username
		return resp
	}

	resp.Message = resp.Status.Description()
	return resp
}

func (h *Handler) sessionID() string {
	h.entropyMu.Lock()
	defer h.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), h.entropy).String()
}

// Session returns the open session with the given id.
func (h *Handler) Session(id string) (Session, bool) {
	return h.sessions.Get(id)
}

// Sessions returns the open sessions, oldest first.
func (h *Handler) Sessions() []Session {
	out := h.sessions.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EndSessions closes the sessions with the given ids and reports how many
// were open.
func (h *Handler) EndSessions(ids ...string) int {
	n := 0
	for _, id := range ids {
		if _, ok := h.sessions.Pop(id); ok {
			n++
		}
	}
	return n
}

// EndUserSessions closes every session of username.
func (h *Handler) EndUserSessions(username string) int {
	name := normalize(username)
	return h.sessions.DeleteFunc(func(_ string, s Session) bool {
		return normalize(s.Username) == name
	})
}
