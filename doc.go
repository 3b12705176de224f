// Package avatarlobby provides an authoritative TCP lobby server for small
// multiplayer/chat worlds: avatars with positions and skins, named chat rooms,
// and targeted delivery (broadcast, room-scoped, proximity whisper).
//
// Clients hold one persistent TCP connection and exchange length-prefixed binary
// frames. Each frame carries a string type tag followed by tag-specific fields
// (see internal/command for the full set). The server owns all state: it assigns
// avatar identity at accept time, sends the newcomer a world snapshot, and
// rebroadcasts every accepted state change to the peers that should see it.
//
// # Quick start
//
//	import "github.com/dumiswa/avatarlobby/tcp"
//
//	cfg := tcp.DefaultConfig()
//	cfg.Addr = ":55555"
//	server := tcp.New(cfg)
//
//	ctx := context.Background()
//	if err := server.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Stop(ctx)
//
// # Protocol format
//
// Every TCP frame is:
//
//	[4 bytes: payload length (uint32, big-endian)][N bytes: payload]
//
// The payload begins with a length-prefixed UTF-8 tag string ("pJoin", "pMove",
// "pText", ...) followed by the tag's fields: big-endian int32s and
// length-prefixed UTF-8 strings, read back in the exact order they were written.
// World positions travel as fixed-point millis (value multiplied by 1000 and
// truncated). Maximum payload: 64 KiB.
//
// Unknown tags decode to a sentinel and are ignored rather than failing the
// connection, so an older server tolerates a newer client.
//
// # Concurrency model
//
// All session and room state is mutated on a single tick loop:
// accept-drain, then at most one decoded message per ready connection, then a
// faulty-connection sweep, then a fixed sleep. Per-connection reader and writer
// goroutines only move bytes; they never touch shared state. A connection that
// errors on read or write is marked faulty and evicted on the next sweep, with a
// Leave broadcast to the remaining peers.
//
// # Rate limiting
//
// Each connection has an independent token-bucket limiter on inbound frames:
//
//	cfg.RateLimit = tcp.DefaultRateLimitConfig() // 100 frames/s, burst 200
//	cfg.RateLimit = tcp.NoRateLimit()
//
// A connection that exceeds its budget is evicted.
//
// # Transports
//
// The engine is transport-agnostic. The ws package bridges WebSocket clients
// into the same lobby as TCP clients; WebSocket messages are self-delimiting, so
// the 4-byte length prefix is dropped there and the payload bytes are identical.
package avatarlobby
