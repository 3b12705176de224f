package lobby

import (
	"log/slog"

	"github.com/dumiswa/avatarlobby/internal/command"
)

// Broadcaster implements the delivery primitives on top of the registry. It
// never mutates session state. A failed recipient is marked faulty for the
// next sweep and never aborts delivery to the remaining recipients.
type Broadcaster struct {
	reg *Registry
	log *slog.Logger
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(reg *Registry, log *slog.Logger) *Broadcaster {
	return &Broadcaster{reg: reg, log: log}
}

// SendTo delivers one command to a single connection.
func (b *Broadcaster) SendTo(c *Conn, cmd command.Command) error {
	if err := c.Send(command.Encode(cmd)); err != nil {
		b.log.Debug("send failed", "conn_id", c.ID(), "tag", cmd.Tag(), "error", err)
		return err
	}
	return nil
}

// BroadcastAll delivers one command to every live connection, optionally
// skipping one.
func (b *Broadcaster) BroadcastAll(cmd command.Command, except *Conn) {
	data := command.Encode(cmd)
	for _, c := range b.reg.Snapshot() {
		if c == except {
			continue
		}
		b.deliver(c, cmd.Tag(), data)
	}
}

// BroadcastRoom delivers one command to every member of a room.
func (b *Broadcaster) BroadcastRoom(room string, cmd command.Command) {
	data := command.Encode(cmd)
	for _, connID := range b.reg.RoomMembers(room) {
		c, ok := b.reg.Conn(connID)
		if !ok {
			continue
		}
		b.deliver(c, cmd.Tag(), data)
	}
}

// BroadcastRadius delivers one command to every connection whose avatar lies
// within radius of the origin, optionally skipping one. The test compares
// squared distances, so no square root is taken; coordinates are fixed-point
// millis and the squares are computed in 64 bits to survive the full int32
// coordinate range.
func (b *Broadcaster) BroadcastRadius(x, z, radius int32, cmd command.Command, except *Conn) {
	data := command.Encode(cmd)
	radiusSq := int64(radius) * int64(radius)

	for _, c := range b.reg.Snapshot() {
		if c == except {
			continue
		}
		sess, ok := b.reg.Session(c.ID())
		if !ok {
			continue
		}

		dx := int64(x) - int64(sess.X)
		dz := int64(z) - int64(sess.Z)
		if dx*dx+dz*dz <= radiusSq {
			b.deliver(c, cmd.Tag(), data)
		}
	}
}

func (b *Broadcaster) deliver(c *Conn, tag string, data []byte) {
	if err := c.Send(data); err != nil {
		// Marked faulty inside Send; the sweep evicts it, not this fan-out.
		b.log.Debug("broadcast delivery failed", "conn_id", c.ID(), "tag", tag, "error", err)
	}
}
