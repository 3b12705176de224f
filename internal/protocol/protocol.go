// Package protocol implements the framing and payload codec for the lobby wire
// format: 4-byte big-endian length prefix, then a payload that starts with a
// length-prefixed UTF-8 tag string followed by tag-specific fields.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize     = 4
	maxPayloadSize = 64 * 1024 // 64KiB max payload size
)

// ErrMalformed is returned for any payload that cannot be decoded: a truncated
// field, a negative or oversized length prefix, or a read past the payload end.
// Callers drop the message; a malformed payload never evicts the connection.
var ErrMalformed = errors.New("malformed packet")

// WriteFrame writes one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("payload size %d exceeds maximum %d bytes", len(payload), maxPayloadSize)
	}

	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame from r. It blocks until the full
// frame is available; this is the single blocking boundary in the server and is
// bounded by the owning reader goroutine's lifetime, not by a timeout here.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxPayloadSize {
		return nil, fmt.Errorf("%w: declared payload size %d exceeds maximum %d bytes", ErrMalformed, size, maxPayloadSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Packet is an append-only writer and cursor reader over one frame payload.
// Fields are not self-describing: readers must pull them in the exact order
// they were written.
type Packet struct {
	buf []byte
	off int
}

// NewPacket starts a payload with the given tag as its first field.
func NewPacket(tag string) *Packet {
	p := &Packet{buf: make([]byte, 0, 64)}
	p.WriteString(tag)
	return p
}

// Parse wraps a received payload and reads its tag, leaving the cursor at the
// first field byte.
func Parse(data []byte) (*Packet, string, error) {
	p := &Packet{buf: data}
	tag, err := p.ReadString()
	if err != nil {
		return nil, "", fmt.Errorf("%w: tag: %w", ErrMalformed, err)
	}
	return p, tag, nil
}

// Bytes returns the accumulated payload.
func (p *Packet) Bytes() []byte {
	return p.buf
}

// WriteInt32 appends a big-endian 32-bit signed integer.
func (p *Packet) WriteInt32(v int32) {
	p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(v))
}

// WriteString appends a length-prefixed UTF-8 string.
func (p *Packet) WriteString(s string) {
	p.WriteInt32(int32(len(s)))
	p.buf = append(p.buf, s...)
}

// ReadInt32 reads the next big-endian 32-bit signed integer.
func (p *Packet) ReadInt32() (int32, error) {
	if p.off+4 > len(p.buf) {
		return 0, ErrMalformed
	}
	v := int32(binary.BigEndian.Uint32(p.buf[p.off : p.off+4]))
	p.off += 4
	return v, nil
}

// ReadString reads the next length-prefixed UTF-8 string.
func (p *Packet) ReadString() (string, error) {
	size, err := p.ReadInt32()
	if err != nil {
		return "", err
	}
	if size < 0 || p.off+int(size) > len(p.buf) {
		return "", ErrMalformed
	}
	s := string(p.buf[p.off : p.off+int(size)])
	p.off += int(size)
	return s, nil
}

// World positions travel as fixed-point millis to avoid floating-point drift
// over the wire: the rendering layer's float is multiplied by 1000 and
// truncated on encode, divided by 1000 on decode.

// Millis converts a world-unit coordinate to its wire representation.
func Millis(v float64) int32 {
	return int32(v * 1000)
}

// Units converts a wire coordinate back to world units.
func Units(v int32) float64 {
	return float64(v) / 1000.0
}
