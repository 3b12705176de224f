package lobby

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dumiswa/avatarlobby/internal/command"
)

// Session is the authoritative server-side state for one connected
// participant. It is 1:1 with a live Conn and mutated only by the dispatcher
// on the tick loop.
type Session struct {
	AvatarID int32
	Name     string
	Skin     int32
	X, Z     int32 // fixed-point millis
	Room     string
}

const (
	skinCount  = 4
	spawnRange = 3000 // spawn in [-spawnRange, spawnRange] millis on both axes
)

// Registry owns the set of live connections and their sessions, plus the
// room membership index. It has an explicit lifecycle and is handed to the
// dispatcher by reference, never reached as ambient state.
//
// Registry is not synchronized: every mutation happens on the tick loop.
type Registry struct {
	conns    map[string]*Conn               // connection id -> connection
	sessions map[string]*Session            // connection id -> session
	rooms    map[string]map[string]struct{} // room name (lower-case) -> member connection ids

	defaultRoom  string
	nextAvatarID int32
	nextGuest    int
}

// NewRegistry creates an empty registry. The default room exists from the
// start and is never pruned.
func NewRegistry(defaultRoom string) *Registry {
	defaultRoom = strings.ToLower(defaultRoom)
	return &Registry{
		conns:        make(map[string]*Conn),
		sessions:     make(map[string]*Session),
		rooms:        map[string]map[string]struct{}{defaultRoom: {}},
		defaultRoom:  defaultRoom,
		nextAvatarID: 1000,
	}
}

// DefaultRoom returns the canonical name of the always-present room.
func (r *Registry) DefaultRoom() string {
	return r.defaultRoom
}

// Add registers a connection and creates its session: sequential avatar id
// (never reused), guest name, random skin and spawn position, membership in
// the default room.
func (r *Registry) Add(c *Conn) *Session {
	r.nextAvatarID++
	r.nextGuest++

	sess := &Session{
		AvatarID: r.nextAvatarID,
		Name:     fmt.Sprintf("Guest%d", r.nextGuest),
		Skin:     int32(rand.IntN(skinCount)),
		X:        int32(rand.IntN(2*spawnRange+1) - spawnRange),
		Z:        int32(rand.IntN(2*spawnRange+1) - spawnRange),
		Room:     r.defaultRoom,
	}

	r.conns[c.ID()] = c
	r.sessions[c.ID()] = sess
	r.rooms[r.defaultRoom][c.ID()] = struct{}{}
	return sess
}

// Remove evicts a connection's entries: session, room membership, connection.
// Idempotent; removing an unknown connection is a no-op. The caller owns
// closing the socket and announcing the departure.
func (r *Registry) Remove(connID string) (*Session, bool) {
	sess, ok := r.sessions[connID]
	if !ok {
		return nil, false
	}

	delete(r.sessions, connID)
	delete(r.conns, connID)
	r.leaveRoom(connID, sess.Room)
	return sess, true
}

// Conn looks up a live connection.
func (r *Registry) Conn(connID string) (*Conn, bool) {
	c, ok := r.conns[connID]
	return c, ok
}

// Session looks up a live connection's session.
func (r *Registry) Session(connID string) (*Session, bool) {
	sess, ok := r.sessions[connID]
	return sess, ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Snapshot returns a point-in-time copy of the live connections, so handlers
// may evict or move members while a caller iterates.
func (r *Registry) Snapshot() []*Conn {
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Avatars builds the world snapshot, excluding the given connection.
func (r *Registry) Avatars(exceptConnID string) []command.Avatar {
	avatars := make([]command.Avatar, 0, len(r.sessions))
	for connID, sess := range r.sessions {
		if connID == exceptConnID {
			continue
		}
		avatars = append(avatars, command.Avatar{
			ID:   sess.AvatarID,
			Skin: sess.Skin,
			X:    sess.X,
			Z:    sess.Z,
		})
	}
	return avatars
}

// FindByName resolves a display name to its connection, case-insensitively.
func (r *Registry) FindByName(name string) (string, bool) {
	for connID, sess := range r.sessions {
		if strings.EqualFold(sess.Name, name) {
			return connID, true
		}
	}
	return "", false
}

// NameTaken reports whether another live session already uses the name,
// case-insensitively.
func (r *Registry) NameTaken(name string, exceptConnID string) bool {
	for connID, sess := range r.sessions {
		if connID == exceptConnID {
			continue
		}
		if strings.EqualFold(sess.Name, name) {
			return true
		}
	}
	return false
}

// MoveToRoom transfers a session into the named room, creating the room on
// first join. The old membership is removed first, so a session is in exactly
// one room at every point. Returns the previous room.
func (r *Registry) MoveToRoom(connID string, room string) string {
	sess, ok := r.sessions[connID]
	if !ok {
		return ""
	}

	room = strings.ToLower(room)
	old := sess.Room
	r.leaveRoom(connID, old)

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connID] = struct{}{}
	sess.Room = room
	return old
}

// RoomMembers returns the connection ids in a room.
func (r *Registry) RoomMembers(room string) []string {
	members := r.rooms[strings.ToLower(room)]
	ids := make([]string, 0, len(members))
	for connID := range members {
		ids = append(ids, connID)
	}
	return ids
}

// Rooms returns every room with its member count.
func (r *Registry) Rooms() map[string]int {
	rooms := make(map[string]int, len(r.rooms))
	for name, members := range r.rooms {
		rooms[name] = len(members)
	}
	return rooms
}

// leaveRoom drops a membership and prunes the room when it empties. The
// default room is never pruned.
func (r *Registry) leaveRoom(connID string, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 && room != r.defaultRoom {
		delete(r.rooms, room)
	}
}
