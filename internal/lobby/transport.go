package lobby

import (
	"bufio"
	"net"

	"github.com/dumiswa/avatarlobby/internal/protocol"
)

// Transport carries one frame payload at a time in either direction. It
// isolates the engine from how frames are delimited: the TCP transport uses
// the 4-byte length prefix, the WebSocket bridge relies on message framing.
type Transport interface {
	// ReadPayload blocks until one full payload is available and returns it.
	ReadPayload() ([]byte, error)

	// WritePayload sends one payload.
	WritePayload(data []byte) error

	// Close closes the underlying socket. ReadPayload and WritePayload fail
	// afterwards.
	Close() error

	// RemoteAddr returns the peer's network address for logging.
	RemoteAddr() string
}

type tcpTransport struct {
	conn net.Conn
	r    *bufio.Reader
}

// NewTCPTransport wraps a stream socket in the length-prefixed framing layer.
func NewTCPTransport(conn net.Conn) Transport {
	return &tcpTransport{conn: conn, r: bufio.NewReader(conn)}
}

func (t *tcpTransport) ReadPayload() ([]byte, error) {
	return protocol.ReadFrame(t.r)
}

func (t *tcpTransport) WritePayload(data []byte) error {
	return protocol.WriteFrame(t.conn, data)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
