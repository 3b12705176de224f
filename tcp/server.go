// Package tcp constructs the canonical TCP lobby server.
package tcp

import (
	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/internal/lobby"
)

type Config = lobby.Config
type RateLimitConfig = lobby.RateLimitConfig
type WhisperPolicy = lobby.WhisperPolicy
type MoveScope = lobby.MoveScope

const (
	// WhisperByRadius delivers whispers to every avatar within
	// Config.WhisperRadius of the sender.
	WhisperByRadius = lobby.WhisperByRadius
	// WhisperByName delivers whispers to the one user named by the first word
	// of the whisper text.
	WhisperByName = lobby.WhisperByName

	// ScopeAll broadcasts position updates to every connection.
	ScopeAll = lobby.ScopeAll
	// ScopeRoom broadcasts position updates to the mover's room only.
	ScopeRoom = lobby.ScopeRoom
)

// New creates a lobby server from the configuration. Zero-valued fields fall
// back to DefaultConfig.
//
// Example:
//
//	cfg := tcp.DefaultConfig()
//	cfg.Addr = ":55555"
//	cfg.WhisperPolicy = tcp.WhisperByName
//	server := tcp.New(cfg)
//	if err := server.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(cfg *Config) avatarlobby.Server {
	return lobby.New(cfg)
}

// DefaultConfig returns the canonical deployment configuration: 100ms ticks,
// proximity whispers, global move broadcasts, default rate limiting.
func DefaultConfig() *Config {
	return lobby.DefaultConfig()
}

// DefaultRateLimitConfig returns the default per-connection rate limit
// (100 frames per second, burst 200).
func DefaultRateLimitConfig() *RateLimitConfig {
	return lobby.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled.
func NoRateLimit() *RateLimitConfig {
	return lobby.NoRateLimit()
}
