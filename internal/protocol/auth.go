package protocol

import (
	"fmt"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

// Client identification defaults sent in every AuthenticationRequest.
const (
	DefaultClientVersion    = "1.0.0"
	DefaultClientIdentifier = "habbo-cli"
)

// AuthenticationRequest is sent by the client after connecting.
//
// Wire fields: username, sso token, client version, client identifier.
type AuthenticationRequest struct {
	Username         string
	SSOToken         string
	ClientVersion    string
	ClientIdentifier string
}

// NewAuthenticationRequest creates a request with the default client
// version and identifier.
func NewAuthenticationRequest(username, ssoToken string) *AuthenticationRequest {
	return &AuthenticationRequest{
		Username:         username,
		SSOToken:         ssoToken,
		ClientVersion:    DefaultClientVersion,
		ClientIdentifier: DefaultClientIdentifier,
	}
}

// ID implements Message.
func (m *AuthenticationRequest) ID() MessageID { return MsgAuthenticationRequest }

// Marshal implements Message.
func (m *AuthenticationRequest) Marshal() ([]byte, error) {
	w := newMessageWriter(m.ID(), 8+len(m.Username)+len(m.SSOToken)+len(m.ClientVersion)+len(m.ClientIdentifier))
	w.WriteString(m.Username)
	w.WriteString(m.SSOToken)
	w.WriteString(m.ClientVersion)
	w.WriteString(m.ClientIdentifier)
	return w.Bytes()
}

// Unmarshal implements Message.
func (m *AuthenticationRequest) Unmarshal(payload []byte) error {
	r, err := newMessageReader(payload)
	if err != nil {
		return err
	}
	if m.Username, err = r.ReadString(); err != nil {
		return err
	}
	if m.SSOToken, err = r.ReadString(); err != nil {
		return err
	}
	if m.ClientVersion, err = r.ReadString(); err != nil {
		return err
	}
	m.ClientIdentifier, err = r.ReadString()
	return err
}

// String summarizes the request with the token masked.
func (m *AuthenticationRequest) String() string {
	return fmt.Sprintf("AuthenticationRequest{username=%q, client=%s/%s, token=%s}",
		m.Username, m.ClientIdentifier, m.ClientVersion, domain.MaskToken(m.SSOToken))
}

// AuthenticationResponse is the server's answer to an AuthenticationRequest.
//
// Wire fields: status byte, user id, session token, message.
type AuthenticationResponse struct {
	Status       AuthStatus
	UserID       int32
	SessionToken string
	Message      string
}

// ID implements Message.
func (m *AuthenticationResponse) ID() MessageID { return MsgAuthenticationResponse }

// Marshal implements Message.
func (m *AuthenticationResponse) Marshal() ([]byte, error) {
	w := newMessageWriter(m.ID(), 9+len(m.SessionToken)+len(m.Message))
	_ = w.WriteByte(byte(m.Status))
	w.WriteInt32(m.UserID)
	w.WriteString(m.SessionToken)
	w.WriteString(m.Message)
	return w.Bytes()
}

// Unmarshal implements Message. Unknown status codes become StatusServerError.
func (m *AuthenticationResponse) Unmarshal(payload []byte) error {
	r, err := newMessageReader(payload)
	if err != nil {
		return err
	}
	code, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Status = ParseAuthStatus(code)
	if m.UserID, err = r.ReadInt32(); err != nil {
		return err
	}
	if m.SessionToken, err = r.ReadString(); err != nil {
		return err
	}
	m.Message, err = r.ReadString()
	return err
}

// Successful reports whether the server accepted the authentication.
func (m *AuthenticationResponse) Successful() bool {
	return m.Status.IsSuccess()
}

// String summarizes the response without the session token.
func (m *AuthenticationResponse) String() string {
	return fmt.Sprintf("AuthenticationResponse{status=%s (%s), user_id=%d}",
		m.Status, m.Status.Description(), m.UserID)
}
