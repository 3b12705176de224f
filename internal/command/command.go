// Package command defines the closed set of protocol commands and the tag
// registry that decodes them. Each variant knows how to write and read its own
// fields through a protocol.Packet, in a fixed declaration order.
//
// Adding a command is a one-place change: define the type and add its entry to
// the decoders table.
package command

import (
	"fmt"

	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/internal/protocol"
)

// Command is one self-serializing protocol event. Commands are transient
// values: decoded from one frame or built from intent, consumed once, never
// retained.
type Command interface {
	// Tag returns the wire tag identifying the variant.
	Tag() string

	write(p *protocol.Packet)
	read(p *protocol.Packet) error
}

// decoders maps a wire tag to a constructor for the matching variant.
var decoders = map[string]func() Command{
	avatarlobby.TagJoin:        func() Command { return &Join{} },
	avatarlobby.TagMove:        func() Command { return &Move{} },
	avatarlobby.TagText:        func() Command { return &Text{} },
	avatarlobby.TagWhisper:     func() Command { return &Whisper{} },
	avatarlobby.TagWhisperFrom: func() Command { return &WhisperFrom{} },
	avatarlobby.TagLeave:       func() Command { return &Leave{} },
	avatarlobby.TagWorld:       func() Command { return &World{} },
	avatarlobby.TagSetName:     func() Command { return &SetName{} },
	avatarlobby.TagJoinRoom:    func() Command { return &JoinRoom{} },
	avatarlobby.TagListRooms:   func() Command { return &ListRooms{} },
	avatarlobby.TagWho:         func() Command { return &Who{} },
	avatarlobby.TagList:        func() Command { return &List{} },
	avatarlobby.TagHelp:        func() Command { return &Help{} },
	avatarlobby.TagChangeSkin:  func() Command { return &ChangeSkin{} },
	avatarlobby.TagNotice:      func() Command { return &Notice{} },
}

// Encode serializes a command into one frame payload: tag first, fields after.
func Encode(cmd Command) []byte {
	p := protocol.NewPacket(cmd.Tag())
	cmd.write(p)
	return p.Bytes()
}

// Decode deserializes one frame payload. An unrecognized tag yields an
// *Unknown sentinel, not an error: unknown commands are ignored, never fatal
// to the connection. A recognized tag with a truncated body is a malformed
// packet.
func Decode(data []byte) (Command, error) {
	p, tag, err := protocol.Parse(data)
	if err != nil {
		return nil, err
	}

	decoder, ok := decoders[tag]
	if !ok {
		return &Unknown{Raw: tag}, nil
	}

	cmd := decoder()
	if err := cmd.read(p); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	return cmd, nil
}

// Join announces a new avatar to existing clients.
type Join struct {
	ID   int32
	Skin int32
	X    int32
	Z    int32
}

func (c *Join) Tag() string { return avatarlobby.TagJoin }

func (c *Join) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
	p.WriteInt32(c.Skin)
	p.WriteInt32(c.X)
	p.WriteInt32(c.Z)
}

func (c *Join) read(p *protocol.Packet) (err error) {
	if c.ID, err = p.ReadInt32(); err != nil {
		return err
	}
	if c.Skin, err = p.ReadInt32(); err != nil {
		return err
	}
	if c.X, err = p.ReadInt32(); err != nil {
		return err
	}
	c.Z, err = p.ReadInt32()
	return err
}

// Move is an authoritative position update. Coordinates are fixed-point
// millis. The server overwrites the inbound ID with the sender's identity
// before rebroadcasting.
type Move struct {
	ID int32
	X  int32
	Z  int32
}

func (c *Move) Tag() string { return avatarlobby.TagMove }

func (c *Move) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
	p.WriteInt32(c.X)
	p.WriteInt32(c.Z)
}

func (c *Move) read(p *protocol.Packet) (err error) {
	if c.ID, err = p.ReadInt32(); err != nil {
		return err
	}
	if c.X, err = p.ReadInt32(); err != nil {
		return err
	}
	c.Z, err = p.ReadInt32()
	return err
}

// Text is room chat. Inbound, the ID is ignored; outbound it names the sender.
type Text struct {
	ID      int32
	Message string
}

func (c *Text) Tag() string { return avatarlobby.TagText }

func (c *Text) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
	p.WriteString(c.Message)
}

func (c *Text) read(p *protocol.Packet) (err error) {
	if c.ID, err = p.ReadInt32(); err != nil {
		return err
	}
	c.Message, err = p.ReadString()
	return err
}

// Whisper is a client-to-server private message request. The sender is
// implicit (the sending connection); how the target is resolved depends on the
// server's whisper policy.
type Whisper struct {
	Message string
}

func (c *Whisper) Tag() string { return avatarlobby.TagWhisper }

func (c *Whisper) write(p *protocol.Packet) {
	p.WriteString(c.Message)
}

func (c *Whisper) read(p *protocol.Packet) (err error) {
	c.Message, err = p.ReadString()
	return err
}

// WhisperFrom is a server-to-client private message delivery with the sender
// made explicit.
type WhisperFrom struct {
	ID      int32
	Message string
}

func (c *WhisperFrom) Tag() string { return avatarlobby.TagWhisperFrom }

func (c *WhisperFrom) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
	p.WriteString(c.Message)
}

func (c *WhisperFrom) read(p *protocol.Packet) (err error) {
	if c.ID, err = p.ReadInt32(); err != nil {
		return err
	}
	c.Message, err = p.ReadString()
	return err
}

// Leave announces an avatar's removal.
type Leave struct {
	ID int32
}

func (c *Leave) Tag() string { return avatarlobby.TagLeave }

func (c *Leave) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
}

func (c *Leave) read(p *protocol.Packet) (err error) {
	c.ID, err = p.ReadInt32()
	return err
}

// Avatar is one entry of a World snapshot.
type Avatar struct {
	ID   int32
	Skin int32
	X    int32
	Z    int32
}

// World is the snapshot of every currently-known avatar, sent once to a newly
// accepted connection before any other traffic.
type World struct {
	Avatars []Avatar
}

func (c *World) Tag() string { return avatarlobby.TagWorld }

func (c *World) write(p *protocol.Packet) {
	p.WriteInt32(int32(len(c.Avatars)))
	for _, a := range c.Avatars {
		p.WriteInt32(a.ID)
		p.WriteInt32(a.Skin)
		p.WriteInt32(a.X)
		p.WriteInt32(a.Z)
	}
}

func (c *World) read(p *protocol.Packet) error {
	count, err := p.ReadInt32()
	if err != nil {
		return err
	}
	if count < 0 {
		return protocol.ErrMalformed
	}

	avatars := make([]Avatar, 0, min(int(count), 64))
	for i := int32(0); i < count; i++ {
		var a Avatar
		if a.ID, err = p.ReadInt32(); err != nil {
			return err
		}
		if a.Skin, err = p.ReadInt32(); err != nil {
			return err
		}
		if a.X, err = p.ReadInt32(); err != nil {
			return err
		}
		if a.Z, err = p.ReadInt32(); err != nil {
			return err
		}
		avatars = append(avatars, a)
	}
	c.Avatars = avatars
	return nil
}

// SetName is a rename request; the sender is implicit.
type SetName struct {
	Name string
}

func (c *SetName) Tag() string { return avatarlobby.TagSetName }

func (c *SetName) write(p *protocol.Packet) {
	p.WriteString(c.Name)
}

func (c *SetName) read(p *protocol.Packet) (err error) {
	c.Name, err = p.ReadString()
	return err
}

// JoinRoom moves the sender into another room, creating it if needed.
type JoinRoom struct {
	Room string
}

func (c *JoinRoom) Tag() string { return avatarlobby.TagJoinRoom }

func (c *JoinRoom) write(p *protocol.Packet) {
	p.WriteString(c.Room)
}

func (c *JoinRoom) read(p *protocol.Packet) (err error) {
	c.Room, err = p.ReadString()
	return err
}

// ListRooms asks for the set of rooms; the reply goes only to the sender.
type ListRooms struct{}

func (c *ListRooms) Tag() string { return avatarlobby.TagListRooms }

func (c *ListRooms) write(p *protocol.Packet)      {}
func (c *ListRooms) read(p *protocol.Packet) error { return nil }

// Who asks for the members of the sender's current room.
type Who struct{}

func (c *Who) Tag() string { return avatarlobby.TagWho }

func (c *Who) write(p *protocol.Packet)      {}
func (c *Who) read(p *protocol.Packet) error { return nil }

// List asks for every connected user and their room.
type List struct{}

func (c *List) Tag() string { return avatarlobby.TagList }

func (c *List) write(p *protocol.Packet)      {}
func (c *List) read(p *protocol.Packet) error { return nil }

// Help asks for the command overview.
type Help struct{}

func (c *Help) Tag() string { return avatarlobby.TagHelp }

func (c *Help) write(p *protocol.Packet)      {}
func (c *Help) read(p *protocol.Packet) error { return nil }

// ChangeSkin swaps an avatar's skin. The server overwrites the inbound ID with
// the sender's identity before rebroadcasting.
type ChangeSkin struct {
	ID   int32
	Skin int32
}

func (c *ChangeSkin) Tag() string { return avatarlobby.TagChangeSkin }

func (c *ChangeSkin) write(p *protocol.Packet) {
	p.WriteInt32(c.ID)
	p.WriteInt32(c.Skin)
}

func (c *ChangeSkin) read(p *protocol.Packet) (err error) {
	if c.ID, err = p.ReadInt32(); err != nil {
		return err
	}
	c.Skin, err = p.ReadInt32()
	return err
}

// Notice is a server-to-client informational or validation message, delivered
// to exactly one connection.
type Notice struct {
	Message string
}

func (c *Notice) Tag() string { return avatarlobby.TagNotice }

func (c *Notice) write(p *protocol.Packet) {
	p.WriteString(c.Message)
}

func (c *Notice) read(p *protocol.Packet) (err error) {
	c.Message, err = p.ReadString()
	return err
}

// Unknown is the sentinel for a tag with no registered decoder. The dispatcher
// ignores it.
type Unknown struct {
	Raw string
}

func (c *Unknown) Tag() string { return c.Raw }

func (c *Unknown) write(p *protocol.Packet)      {}
func (c *Unknown) read(p *protocol.Packet) error { return nil }
