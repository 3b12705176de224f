// Package lobby implements the authoritative session/state engine: connection
// lifecycle, the per-client session store, room membership, command dispatch
// and the delivery primitives, all driven by a single fixed-interval tick
// loop.
package lobby

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/internal/command"
)

const pendingSize = 16

// Server ties the registry, dispatcher and broadcaster together under the
// tick loop: accept-drain, one decoded message per ready connection, faulty
// sweep, sleep. All session and room state is owned by that one goroutine, so
// the engine holds no locks around it.
type Server struct {
	cfg  *Config
	log  *slog.Logger
	reg  *Registry
	bc   *Broadcaster
	disp *Dispatcher

	listener net.Listener
	pending  chan Transport

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}

	statClients atomic.Int32
	statRooms   atomic.Int32
}

// New builds a stopped server from the configuration. Nil or zero fields fall
// back to DefaultConfig values.
func New(cfg *Config) *Server {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = def.DefaultRoom
	}
	if cfg.WhisperRadius <= 0 {
		cfg.WhisperRadius = def.WhisperRadius
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	reg := NewRegistry(cfg.DefaultRoom)
	bc := NewBroadcaster(reg, cfg.Logger)

	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		reg:     reg,
		bc:      bc,
		disp:    NewDispatcher(cfg, reg, bc, cfg.Logger),
		pending: make(chan Transport, pendingSize),
	}
}

// Start binds the listener and launches the accept and tick goroutines.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New(avatarlobby.ErrServerAlreadyRunning)
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	s.log.Info("server started", "addr", listener.Addr().String(), "tick", s.cfg.TickInterval)

	go s.acceptLoop(listener)
	go s.run()
	return nil
}

// Stop closes the listener, halts the tick loop and closes every client.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.done)
	s.listener.Close()
	stopped := s.stopped
	s.mu.Unlock()

	select {
	case <-stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, c := range s.reg.Snapshot() {
		s.reg.Remove(c.ID())
		c.close()
	}
	s.log.Info("server stopped")
	return nil
}

// Addr returns the bound listener address, or the empty string when the
// server is stopped. Useful when the configured address picked port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stats reports the current number of live connections and rooms. Values are
// published at the end of each tick, so they are safe to read from any
// goroutine.
func (s *Server) Stats() (clients, rooms int) {
	return int(s.statClients.Load()), int(s.statRooms.Load())
}

// Attach hands a ready transport to the server, as if it had been accepted on
// the listener. Used by alternative transports such as the WebSocket bridge.
func (s *Server) Attach(tr Transport) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return errors.New(avatarlobby.ErrServerNotRunning)
	}

	select {
	case s.pending <- tr:
		return nil
	case <-s.done:
		return errors.New(avatarlobby.ErrServerNotRunning)
	}
}

// acceptLoop blocks in Accept and queues new transports for the next tick.
// It exits when the listener closes.
func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		select {
		case s.pending <- NewTCPTransport(conn):
		case <-s.done:
			conn.Close()
			return
		}
	}
}

func (s *Server) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick is one full pass: accept-drain, process-ready, evict-faulty. Nothing
// else ever mutates the registry.
func (s *Server) tick() {
	s.drainPending()
	s.processReady()
	s.evictFaulty()

	s.statClients.Store(int32(s.reg.Len()))
	s.statRooms.Store(int32(len(s.reg.Rooms())))
}

// drainPending registers every queued transport without blocking on ones
// that are not there yet.
func (s *Server) drainPending() {
	for {
		select {
		case tr := <-s.pending:
			s.register(tr)
		default:
			return
		}
	}
}

// register runs the accept sequence: allocate identity and session, send the
// newcomer the world snapshot, announce the join to everyone else. Any
// failure mid-sequence evicts the partially-registered connection rather
// than leaving a half-initialized entry.
func (s *Server) register(tr Transport) {
	c := newConn(tr, s.cfg.RateLimit)
	sess := s.reg.Add(c)

	world := &command.World{Avatars: s.reg.Avatars(c.ID())}
	if err := s.bc.SendTo(c, world); err != nil {
		s.reg.Remove(c.ID())
		c.close()
		s.log.Warn("dropping client during registration", "remote_addr", c.RemoteAddr(), "error", err)
		return
	}

	s.bc.BroadcastAll(&command.Join{ID: sess.AvatarID, Skin: sess.Skin, X: sess.X, Z: sess.Z}, c)
	s.log.Info("client joined",
		"avatar_id", sess.AvatarID,
		"name", sess.Name,
		"remote_addr", c.RemoteAddr(),
		"clients", s.reg.Len())
}

// processReady hands at most one decoded message per ready connection to the
// dispatcher. One message per tick keeps latency fair across connections;
// iterating a snapshot keeps handler-side eviction safe.
func (s *Server) processReady() {
	for _, c := range s.reg.Snapshot() {
		payload, ok := c.poll()
		if !ok {
			continue
		}
		s.handlePayload(c, payload)
	}
}

// handlePayload decodes and dispatches one frame. Failures are isolated to
// this connection: a malformed payload is dropped, an unknown tag is ignored,
// a handler panic marks the connection faulty. The tick always continues with
// the other connections.
func (s *Server) handlePayload(c *Conn, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic, evicting client", "conn_id", c.ID(), "panic", r)
			c.markFaulty()
		}
	}()

	cmd, err := command.Decode(payload)
	if err != nil {
		s.log.Debug("dropping malformed packet", "conn_id", c.ID(), "error", err)
		return
	}

	sess, ok := s.reg.Session(c.ID())
	if !ok {
		return
	}
	s.disp.Dispatch(c, sess, cmd)
}

// evictFaulty removes every connection that failed a read, write or rate
// check since the last pass, announcing the departure to the remaining
// peers. Eviction is idempotent.
func (s *Server) evictFaulty() {
	for _, c := range s.reg.Snapshot() {
		if !c.Faulty() {
			continue
		}

		sess, ok := s.reg.Remove(c.ID())
		c.close()
		if !ok {
			continue
		}

		s.bc.BroadcastAll(&command.Leave{ID: sess.AvatarID}, c)
		s.log.Info("client removed",
			"avatar_id", sess.AvatarID,
			"name", sess.Name,
			"clients", s.reg.Len())
	}
}
