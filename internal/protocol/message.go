package protocol

import (
	"fmt"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

// MessageIDSize is the size of the int16 id at the start of every payload.
const MessageIDSize = 2

// MessageID identifies a message variant on the wire.
type MessageID int16

// Known message ids.
const (
	MsgAuthenticationRequest  MessageID = 0x0001
	MsgAuthenticationResponse MessageID = 0x0002
)

// String returns the variant name, or the hex id if unknown.
func (id MessageID) String() string {
	switch id {
	case MsgAuthenticationRequest:
		return "AuthenticationRequest"
	case MsgAuthenticationResponse:
		return "AuthenticationResponse"
	default:
		return fmt.Sprintf("Message(0x%04x)", uint16(id))
	}
}

// Message is a protocol message variant.
//
// Marshal returns the full payload including the id header. Unmarshal
// skips the id header and reads the fields in order.
type Message interface {
	ID() MessageID
	Marshal() ([]byte, error)
	Unmarshal(payload []byte) error
}

// registry maps each known id to a constructor for its variant.
var registry = map[MessageID]func() Message{
	MsgAuthenticationRequest:  func() Message { return &AuthenticationRequest{} },
	MsgAuthenticationResponse: func() Message { return &AuthenticationResponse{} },
}

// New returns an empty message for id.
func New(id MessageID) (Message, error) {
	ctor, ok := registry[id]
	if !ok {
		return nil, domain.ErrUnknownMessage.WithDetails(id.String())
	}
	return ctor(), nil
}

// Known reports whether id has a registered variant.
func Known(id MessageID) bool {
	_, ok := registry[id]
	return ok
}

// PeekID returns the message id at the start of payload without consuming it.
func PeekID(payload []byte) (MessageID, error) {
	v, err := NewReader(payload).ReadInt16()
	if err != nil {
		return 0, err
	}
	return MessageID(v), nil
}

// Decode builds the registered variant for the payload's id and unmarshals it.
func Decode(payload []byte) (Message, error) {
	id, err := PeekID(payload)
	if err != nil {
		return nil, err
	}
	msg, err := New(id)
	if err != nil {
		return nil, err
	}
	if err := msg.Unmarshal(payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return msg, nil
}

// newMessageWriter starts a payload with the id header.
func newMessageWriter(id MessageID, size int) *Writer {
	w := NewWriter(MessageIDSize + size)
	w.WriteInt16(int16(id))
	return w
}

// newMessageReader returns a Reader positioned after the id header.
func newMessageReader(payload []byte) (*Reader, error) {
	r := NewReader(payload)
	if err := r.Skip(MessageIDSize); err != nil {
		return nil, err
	}
	return r, nil
}
