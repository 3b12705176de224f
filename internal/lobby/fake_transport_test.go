package lobby

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dumiswa/avatarlobby/internal/command"
)

// fakeTransport is an in-memory Transport for driving the engine without
// sockets. Frames pushed with push() appear on the read side; frames the
// engine writes land on out.
type fakeTransport struct {
	in        chan []byte
	out       chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) ReadPayload() ([]byte, error) {
	select {
	case data := <-t.in:
		return data, nil
	case <-t.closed:
		return nil, io.EOF
	}
}

func (t *fakeTransport) WritePayload(data []byte) error {
	select {
	case t.out <- data:
		return nil
	case <-t.closed:
		return io.ErrClosedPipe
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) RemoteAddr() string {
	return "fake:0"
}

// push queues a payload on the transport's read side.
func (t *fakeTransport) push(cmd command.Command) {
	t.in <- command.Encode(cmd)
}

// recvCommand waits for the next frame the engine wrote to this transport.
func recvCommand(t *testing.T, ft *fakeTransport) command.Command {
	t.Helper()
	select {
	case data := <-ft.out:
		cmd, err := command.Decode(data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

// expectSilence asserts that no frame arrives on this transport.
func expectSilence(t *testing.T, ft *fakeTransport) {
	t.Helper()
	select {
	case data := <-ft.out:
		cmd, _ := command.Decode(data)
		t.Fatalf("unexpected frame %+v", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}
