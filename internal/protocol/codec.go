package protocol

import (
	"encoding/binary"
	"math"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

// MaxStringLength is the longest UTF-8 string a 16-bit length prefix can carry.
const MaxStringLength = math.MaxUint16

// Writer accumulates big-endian encoded fields.
//
// The first failing write is remembered and every later write becomes a
// no-op; the error is reported by Bytes and Err.
type Writer struct {
	buf []byte
	err error
}

// NewWriter creates a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	if size < 0 {
		size = 0
	}
	return &Writer{buf: make([]byte, 0, size)}
}

// WriteInt32 appends v as 4 big-endian bytes.
func (w *Writer) WriteInt32(v int32) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// WriteInt16 appends v as 2 big-endian bytes.
func (w *Writer) WriteInt16(v int16) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

// WriteByte appends a single byte. It implements io.ByteWriter and returns
// the sticky error, if any.
func (w *Writer) WriteByte(b byte) error {
	if w.err != nil {
		return w.err
	}
	w.buf = append(w.buf, b)
	return nil
}

// WriteString appends a uint16 length prefix and the UTF-8 bytes of s.
// Strings longer than MaxStringLength bytes set ErrStringTooLong.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > MaxStringLength {
		w.err = domain.ErrStringTooLong.WithDetailsf("%d bytes exceeds %d", len(s), MaxStringLength)
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBytes appends p without a length prefix.
func (w *Writer) WriteBytes(p []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, p...)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Bytes returns the encoded bytes, or the first write error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Reader consumes big-endian encoded fields from a byte slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a Reader over b. The Reader does not copy b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Remaining() < n {
		return domain.ErrTruncatedMessage.WithDetailsf("need %d bytes at offset %d, have %d", n, r.off, r.Remaining())
	}
	return nil
}

// ReadInt32 reads 4 big-endian bytes.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return int32(v), nil
}

// ReadInt16 reads 2 big-endian bytes.
func (r *Reader) ReadInt16() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return int16(v), nil
}

// ReadByte reads a single byte. It implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadString reads a uint16 length prefix and that many UTF-8 bytes.
// A declared length larger than what remains fails with ErrTruncatedMessage
// and leaves the offset after the prefix.
func (r *Reader) ReadString() (string, error) {
	if err := r.need(2); err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(r.buf[r.off:]))
	r.off += 2
	if n == 0 {
		return "", nil
	}
	if err := r.need(n); err != nil {
		return "", err
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// ReadRemaining returns every unread byte and moves to the end.
func (r *Reader) ReadRemaining() []byte {
	rest := r.buf[r.off:]
	r.off = len(r.buf)
	return rest
}

// HasMore reports whether unread bytes remain.
func (r *Reader) HasMore() bool {
	return r.off < len(r.buf)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}
