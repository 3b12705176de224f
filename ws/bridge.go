// Package ws bridges WebSocket clients into a running lobby server, making
// them peers of the TCP clients. WebSocket messages are self-delimiting, so
// the 4-byte length prefix is dropped on this transport; each binary message
// carries exactly one payload (tag plus fields), byte-identical to the TCP
// form.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/internal/lobby"
)

const writeWait = 10 * time.Second

// CheckOriginFn validates the origin of a WebSocket connection request.
// Return true to allow the connection. Use this to implement CORS policies;
// never use AllOrigins in production.
type CheckOriginFn = func(r *http.Request) bool

// AllOrigins returns a check that allows every origin (development only).
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool {
		return true
	}
}

// NewHandler returns an http.Handler that upgrades each request and attaches
// the socket to the server as a regular lobby connection. The server must
// have been built by the tcp package and be running; attachment failures
// close the socket.
//
// Example:
//
//	server := tcp.New(tcp.DefaultConfig())
//	server.Start(ctx)
//	http.Handle("/ws", ws.NewHandler(server, ws.AllOrigins()))
func NewHandler(server avatarlobby.Server, checkOrigin CheckOriginFn) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine, ok := server.(*lobby.Server)
		if !ok {
			http.Error(w, "unsupported server implementation", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		if err := engine.Attach(&wsTransport{conn: conn}); err != nil {
			conn.Close()
		}
	})
}

// wsTransport adapts a WebSocket connection to the engine's Transport.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadPayload() ([]byte, error) {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.BinaryMessage {
			// Control frames are handled by gorilla; text frames have no
			// meaning in this protocol.
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WritePayload(data []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
