package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// TestFrameRoundTrip tests WriteFrame/ReadFrame with various payloads
func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name:    "simple payload",
			payload: []byte("hello"),
		},
		{
			name:    "empty payload",
			payload: []byte{},
		},
		{
			name:    "binary payload",
			payload: []byte{0x00, 0xFF, 0x01, 0xFE},
		},
		{
			name:    "payload at max size",
			payload: make([]byte, maxPayloadSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := WriteFrame(&buf, tt.payload); err != nil {
				t.Fatalf("WriteFrame() error = %v", err)
			}

			if buf.Len() != headerSize+len(tt.payload) {
				t.Errorf("frame length = %d, want %d", buf.Len(), headerSize+len(tt.payload))
			}

			got, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("ReadFrame() = %v, want %v", got, tt.payload)
			}
		})
	}
}

func TestWriteFrameOversized(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, maxPayloadSize+1)); err == nil {
		t.Error("WriteFrame() accepted oversized payload")
	}
}

func TestReadFrameErrors(t *testing.T) {
	t.Parallel()

	t.Run("declared length exceeds maximum", func(t *testing.T) {
		t.Parallel()

		var header [headerSize]byte
		binary.BigEndian.PutUint32(header[:], maxPayloadSize+1)

		_, err := ReadFrame(bytes.NewReader(header[:]))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("ReadFrame() error = %v, want ErrMalformed", err)
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		t.Parallel()

		_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x00}))
		if err == nil {
			t.Error("ReadFrame() accepted truncated header")
		}
	})

	t.Run("truncated payload", func(t *testing.T) {
		t.Parallel()

		var header [headerSize]byte
		binary.BigEndian.PutUint32(header[:], 10)

		_, err := ReadFrame(bytes.NewReader(append(header[:], 0x01, 0x02)))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("ReadFrame() error = %v, want io.ErrUnexpectedEOF", err)
		}
	})
}

// TestPacketRoundTrip writes fields through a Packet and reads them back in
// declaration order.
func TestPacketRoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPacket("pTest")
	p.WriteInt32(0)
	p.WriteInt32(-1)
	p.WriteInt32(math.MaxInt32)
	p.WriteInt32(math.MinInt32)
	p.WriteString("")
	p.WriteString("hello world")
	p.WriteString("ünïcödé")

	q, tag, err := Parse(p.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tag != "pTest" {
		t.Errorf("tag = %q, want %q", tag, "pTest")
	}

	wantInts := []int32{0, -1, math.MaxInt32, math.MinInt32}
	for i, want := range wantInts {
		got, err := q.ReadInt32()
		if err != nil {
			t.Fatalf("ReadInt32() #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("ReadInt32() #%d = %d, want %d", i, got, want)
		}
	}

	wantStrings := []string{"", "hello world", "ünïcödé"}
	for i, want := range wantStrings {
		got, err := q.ReadString()
		if err != nil {
			t.Fatalf("ReadString() #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("ReadString() #%d = %q, want %q", i, got, want)
		}
	}

	// Cursor is exhausted; any further read is malformed.
	if _, err := q.ReadInt32(); !errors.Is(err, ErrMalformed) {
		t.Errorf("ReadInt32() past end error = %v, want ErrMalformed", err)
	}
}

func TestPacketMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty payload",
			data: []byte{},
		},
		{
			name: "truncated tag length",
			data: []byte{0x00, 0x00},
		},
		{
			name: "tag length exceeds payload",
			data: []byte{0x00, 0x00, 0x00, 0x10, 'p'},
		},
		{
			name: "negative tag length",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := Parse(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestPacketStringFieldMalformed(t *testing.T) {
	t.Parallel()

	p := NewPacket("pTest")
	p.WriteInt32(100) // looks like a string length, but no bytes follow

	q, _, err := Parse(p.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := q.ReadString(); !errors.Is(err, ErrMalformed) {
		t.Errorf("ReadString() error = %v, want ErrMalformed", err)
	}
}

func TestFixedPoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		units  float64
		millis int32
	}{
		{0, 0},
		{1.5, 1500},
		{-2.5, -2500},
		{3.0009, 3000}, // truncated, not rounded
		{-0.001, -1},
	}

	for _, tt := range tests {
		if got := Millis(tt.units); got != tt.millis {
			t.Errorf("Millis(%v) = %d, want %d", tt.units, got, tt.millis)
		}
	}

	if got := Units(1500); got != 1.5 {
		t.Errorf("Units(1500) = %v, want 1.5", got)
	}
	if got := Units(-2500); got != -2.5 {
		t.Errorf("Units(-2500) = %v, want -2.5", got)
	}
}
