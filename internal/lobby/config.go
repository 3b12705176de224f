package lobby

import (
	"log/slog"
	"time"
)

// WhisperPolicy selects how a whisper request resolves its recipients. The
// two policies come from different protocol revisions and have different
// failure semantics, so they are never merged: a server runs exactly one.
type WhisperPolicy int

const (
	// WhisperByRadius delivers to every session within WhisperRadius of the
	// sender. Zero recipients is a success, and the sender is never among the
	// recipients.
	WhisperByRadius WhisperPolicy = iota

	// WhisperByName delivers to the one session whose display name matches
	// the first word of the whisper text. An unknown name or a self-target is
	// rejected with a notice to the sender.
	WhisperByName
)

// MoveScope selects who observes position updates.
type MoveScope int

const (
	// ScopeAll broadcasts moves to every connection.
	ScopeAll MoveScope = iota

	// ScopeRoom broadcasts moves only to the mover's current room.
	ScopeRoom
)

// Config carries every deployment choice of a lobby server.
type Config struct {
	// Addr is the TCP listen address, e.g. ":55555".
	Addr string

	// TickInterval is the fixed sleep between server ticks.
	TickInterval time.Duration

	// DefaultRoom is the room every new session starts in. It always exists.
	DefaultRoom string

	// WhisperPolicy selects the whisper addressing policy.
	WhisperPolicy WhisperPolicy

	// WhisperRadius is the delivery radius for WhisperByRadius, in
	// fixed-point millis.
	WhisperRadius int32

	// MoveScope selects who observes position updates.
	MoveScope MoveScope

	// RateLimit is the per-connection inbound frame budget. Nil means
	// DefaultRateLimitConfig().
	RateLimit *RateLimitConfig

	// Logger receives operator-facing diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the canonical deployment: 100ms ticks, proximity
// whispers with a 2-unit radius, global move broadcasts.
func DefaultConfig() *Config {
	return &Config{
		Addr:          ":55555",
		TickInterval:  100 * time.Millisecond,
		DefaultRoom:   "lobby",
		WhisperPolicy: WhisperByRadius,
		WhisperRadius: 2000,
		MoveScope:     ScopeAll,
		RateLimit:     DefaultRateLimitConfig(),
	}
}
