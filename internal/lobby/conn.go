package lobby

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dumiswa/avatarlobby"
)

// RateLimitConfig defines rate limiting for inbound frames per connection.
type RateLimitConfig struct {
	// MessagesPerSecond defines how many frames a client may send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration.
// Allows 100 frames per second with burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled.
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

const (
	inboxSize      = 64
	sendBufferSize = 256
)

// Conn is one live connection. Its reader goroutine moves inbound payloads
// into a bounded inbox that the tick loop drains one frame at a time; its
// writer goroutine drains the send buffer to the socket. Neither goroutine
// touches session or room state.
//
// Any failure (read error, write error, exhausted rate budget, full send
// buffer) marks the connection faulty; the tick loop's sweep evicts faulty
// connections and marking is therefore never destructive by itself.
type Conn struct {
	id        string
	tr        Transport
	inbox     chan []byte
	sendCh    chan []byte
	limiter   *rate.Limiter
	faulty    atomic.Bool
	closeOnce sync.Once
	closedCh  chan struct{}
}

func newConn(tr Transport, rl *RateLimitConfig) *Conn {
	var limiter *rate.Limiter
	if rl != nil && rl.Enabled {
		limiter = rate.NewLimiter(rl.MessagesPerSecond, rl.Burst)
	}

	c := &Conn{
		id:       uuid.New().String(),
		tr:       tr,
		inbox:    make(chan []byte, inboxSize),
		sendCh:   make(chan []byte, sendBufferSize),
		limiter:  limiter,
		closedCh: make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	return c
}

// ID returns the connection's unique identifier. It is assigned at accept
// time and never reused while any other live connection exists.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() string {
	return c.tr.RemoteAddr()
}

// Send queues one payload for delivery. Writes are best effort: a slow
// consumer is not throttled, but one that fills its send buffer is marked
// faulty and eventually evicted.
func (c *Conn) Send(payload []byte) error {
	select {
	case <-c.closedCh:
		return errors.New(avatarlobby.ErrConnectionClosed)
	default:
	}

	select {
	case c.sendCh <- payload:
		return nil
	case <-c.closedCh:
		return errors.New(avatarlobby.ErrConnectionClosed)
	default:
		c.markFaulty()
		return errors.New(avatarlobby.ErrSendBufferFull)
	}
}

// poll returns one queued inbound payload without blocking.
func (c *Conn) poll() ([]byte, bool) {
	select {
	case payload := <-c.inbox:
		return payload, true
	default:
		return nil, false
	}
}

func (c *Conn) markFaulty() {
	c.faulty.Store(true)
}

// Faulty reports whether the connection failed a read, write or rate check
// and is awaiting eviction.
func (c *Conn) Faulty() bool {
	return c.faulty.Load()
}

// close shuts the socket and releases both pumps. Idempotent.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closedCh)
		c.tr.Close()
	})
}

// readPump moves payloads from the socket into the inbox. A read failure is
// the liveness probe: it covers closed peers, resets and half-open sockets
// that turn readable with no data.
func (c *Conn) readPump() {
	for {
		payload, err := c.tr.ReadPayload()
		if err != nil {
			c.markFaulty()
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.markFaulty()
			return
		}

		select {
		case c.inbox <- payload:
		case <-c.closedCh:
			return
		}
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case payload := <-c.sendCh:
			if err := c.tr.WritePayload(payload); err != nil {
				c.markFaulty()
				return
			}
		case <-c.closedCh:
			return
		}
	}
}
