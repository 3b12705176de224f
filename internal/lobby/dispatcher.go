package lobby

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dumiswa/avatarlobby"
	"github.com/dumiswa/avatarlobby/internal/command"
)

const helpText = `Available commands:
setname <name>      - change your display name
join <room>         - join a room (created on first join)
rooms               - list rooms
who                 - list users in your room
list                - list all connected users
whisper <...>       - send a private message
help                - show this help`

// Dispatcher routes one decoded command to its effect: a session mutation, a
// fan-out, or a sender-only reply. Validation failures never mutate state and
// never evict; they answer the sender with a notice.
type Dispatcher struct {
	cfg *Config
	reg *Registry
	bc  *Broadcaster
	log *slog.Logger
}

// NewDispatcher builds a dispatcher over the given registry and broadcaster.
func NewDispatcher(cfg *Config, reg *Registry, bc *Broadcaster, log *slog.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, reg: reg, bc: bc, log: log}
}

// Dispatch applies one command from one connection. The sender's identity is
// taken from its session, never from the command's fields.
func (d *Dispatcher) Dispatch(c *Conn, sess *Session, cmd command.Command) {
	switch cmd := cmd.(type) {
	case *command.Move:
		d.handleMove(sess, cmd)
	case *command.Text:
		d.handleText(sess, cmd)
	case *command.Whisper:
		d.handleWhisper(c, sess, cmd)
	case *command.SetName:
		d.handleSetName(c, sess, cmd)
	case *command.JoinRoom:
		d.handleJoinRoom(c, sess, cmd)
	case *command.ListRooms:
		d.handleListRooms(c)
	case *command.Who:
		d.handleWho(c, sess)
	case *command.List:
		d.handleList(c)
	case *command.Help:
		d.notify(c, helpText)
	case *command.ChangeSkin:
		d.handleChangeSkin(sess, cmd)
	default:
		// Server-to-client commands echoed back, and the Unknown sentinel:
		// ignored, never a reason to drop the connection.
		d.log.Debug("ignoring command", "tag", cmd.Tag())
	}
}

func (d *Dispatcher) handleMove(sess *Session, cmd *command.Move) {
	sess.X = cmd.X
	sess.Z = cmd.Z

	out := &command.Move{ID: sess.AvatarID, X: sess.X, Z: sess.Z}
	if d.cfg.MoveScope == ScopeRoom {
		d.bc.BroadcastRoom(sess.Room, out)
		return
	}
	d.bc.BroadcastAll(out, nil)
}

func (d *Dispatcher) handleText(sess *Session, cmd *command.Text) {
	d.bc.BroadcastRoom(sess.Room, &command.Text{ID: sess.AvatarID, Message: cmd.Message})
}

func (d *Dispatcher) handleWhisper(c *Conn, sess *Session, cmd *command.Whisper) {
	if d.cfg.WhisperPolicy == WhisperByName {
		d.whisperByName(c, sess, cmd.Message)
		return
	}

	// Proximity policy: deliver to everyone close enough, sender excluded.
	// Zero recipients is a success, not an error.
	out := &command.WhisperFrom{ID: sess.AvatarID, Message: cmd.Message}
	d.bc.BroadcastRadius(sess.X, sess.Z, d.cfg.WhisperRadius, out, c)
}

func (d *Dispatcher) whisperByName(c *Conn, sess *Session, message string) {
	parts := strings.SplitN(strings.TrimSpace(message), " ", 2)
	if len(parts) < 2 || parts[0] == "" || strings.TrimSpace(parts[1]) == "" {
		d.notify(c, "Whisper needs a target and a message.")
		return
	}
	targetName, text := parts[0], parts[1]

	targetID, ok := d.reg.FindByName(targetName)
	if !ok {
		d.notify(c, avatarlobby.NoticeUnknownTarget)
		return
	}
	if targetID == c.ID() {
		d.notify(c, avatarlobby.NoticeSelfWhisper)
		return
	}

	target, ok := d.reg.Conn(targetID)
	if !ok {
		d.notify(c, avatarlobby.NoticeUnknownTarget)
		return
	}
	targetSess, _ := d.reg.Session(targetID)

	d.bc.SendTo(target, &command.WhisperFrom{ID: sess.AvatarID, Message: text})
	d.notify(c, fmt.Sprintf("(you whispered to %s): %s", targetSess.Name, text))
}

func (d *Dispatcher) handleSetName(c *Conn, sess *Session, cmd *command.SetName) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		d.notify(c, avatarlobby.NoticeEmptyName)
		return
	}
	if d.reg.NameTaken(name, c.ID()) {
		d.notify(c, avatarlobby.NoticeNameTaken)
		return
	}

	oldName := sess.Name
	sess.Name = name
	d.log.Info("client renamed", "avatar_id", sess.AvatarID, "old", oldName, "new", name)

	d.notify(c, fmt.Sprintf("You are now known as %s.", name))
	d.bc.BroadcastAll(&command.Notice{Message: fmt.Sprintf("%s is now known as %s.", oldName, name)}, c)
}

func (d *Dispatcher) handleJoinRoom(c *Conn, sess *Session, cmd *command.JoinRoom) {
	room := strings.ToLower(strings.TrimSpace(cmd.Room))
	if room == "" {
		d.notify(c, avatarlobby.NoticeEmptyRoom)
		return
	}
	if room == sess.Room {
		d.notify(c, fmt.Sprintf("You are already in room %s.", room))
		return
	}

	d.reg.MoveToRoom(c.ID(), room)
	d.log.Info("client changed room", "avatar_id", sess.AvatarID, "room", room)

	d.notify(c, fmt.Sprintf("You joined room %s.", room))
	notice := &command.Notice{Message: fmt.Sprintf("%s joined the room.", sess.Name)}
	for _, connID := range d.reg.RoomMembers(room) {
		if connID == c.ID() {
			continue
		}
		if member, ok := d.reg.Conn(connID); ok {
			d.bc.SendTo(member, notice)
		}
	}
}

func (d *Dispatcher) handleListRooms(c *Conn) {
	rooms := d.reg.Rooms()
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s (%d)", name, rooms[name]))
	}
	d.notify(c, fmt.Sprintf("Rooms (%d): %s", len(names), strings.Join(lines, ", ")))
}

func (d *Dispatcher) handleWho(c *Conn, sess *Session) {
	names := make([]string, 0)
	for _, connID := range d.reg.RoomMembers(sess.Room) {
		if member, ok := d.reg.Session(connID); ok {
			names = append(names, member.Name)
		}
	}
	sort.Strings(names)
	d.notify(c, fmt.Sprintf("Users in room %s (%d): %s", sess.Room, len(names), strings.Join(names, ", ")))
}

func (d *Dispatcher) handleList(c *Conn) {
	lines := make([]string, 0, d.reg.Len())
	for _, other := range d.reg.Snapshot() {
		if member, ok := d.reg.Session(other.ID()); ok {
			lines = append(lines, fmt.Sprintf("%s (in %s)", member.Name, member.Room))
		}
	}
	sort.Strings(lines)
	d.notify(c, fmt.Sprintf("Online users (%d): %s", len(lines), strings.Join(lines, ", ")))
}

func (d *Dispatcher) handleChangeSkin(sess *Session, cmd *command.ChangeSkin) {
	sess.Skin = cmd.Skin
	d.bc.BroadcastAll(&command.ChangeSkin{ID: sess.AvatarID, Skin: sess.Skin}, nil)
}

func (d *Dispatcher) notify(c *Conn, message string) {
	d.bc.SendTo(c, &command.Notice{Message: message})
}
