package avatarlobby

import "context"

// Server is a running lobby: it accepts connections on one listening port,
// keeps the authoritative session/room state, and fans state changes out to
// interested peers.
//
// All implementations drive their state from a single fixed-interval tick loop,
// so observable behavior is deterministic with respect to ticks: a join, a
// processed message, or an eviction always happens on a tick boundary.
type Server interface {
	// Start binds the listening socket and launches the tick loop. It returns
	// an error if the server is already running or the port cannot be bound;
	// an unbindable listener is the only fatal startup condition.
	Start(ctx context.Context) error

	// Stop shuts the listener, stops the tick loop and closes every client
	// connection. Stopping a stopped server is a no-op.
	Stop(ctx context.Context) error

	// Stats reports the current number of live connections and rooms.
	Stats() (clients, rooms int)
}
