package protocol

import (
	"encoding/binary"
	"io"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

const (
	// FrameHeaderSize is the size of the int32 length prefix.
	FrameHeaderSize = 4

	// DefaultMaxFrameSize bounds the payload accepted by ReadFrame.
	DefaultMaxFrameSize = 1 << 20
)

// EncodeFrame returns payload prefixed with its big-endian int32 length.
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(out[:FrameHeaderSize], uint32(len(payload)))
	copy(out[FrameHeaderSize:], payload)
	return out
}

// WriteFrame writes one length-prefixed frame with a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(EncodeFrame(payload))
	return err
}

// ReadFrame reads one length-prefixed frame and returns its payload.
//
// A length that is negative or above maxSize fails with ErrFrameTooLarge
// before any payload is allocated; maxSize <= 0 selects DefaultMaxFrameSize.
// A clean end of stream before the header returns io.EOF; a stream ending
// inside a frame returns io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := int32(binary.BigEndian.Uint32(header[:]))
	if length < 0 || int64(length) > int64(maxSize) {
		return nil, domain.ErrFrameTooLarge.WithDetailsf("length %d, limit %d", length, maxSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
