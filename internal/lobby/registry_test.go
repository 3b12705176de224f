package lobby

import (
	"fmt"
	"testing"
)

func newRegistryConn(t *testing.T, reg *Registry) (*Conn, *Session) {
	t.Helper()
	c := newConn(newFakeTransport(), NoRateLimit())
	t.Cleanup(c.close)
	return c, reg.Add(c)
}

// TestSessionsMatchConnections checks that after any sequence of adds and
// removes, the set of sessions equals exactly the set of live connections.
func TestSessionsMatchConnections(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")

	var conns []*Conn
	for i := 0; i < 5; i++ {
		c, _ := newRegistryConn(t, reg)
		conns = append(conns, c)
	}

	reg.Remove(conns[1].ID())
	reg.Remove(conns[3].ID())
	reg.Remove(conns[3].ID()) // removing twice is a no-op

	if reg.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", reg.Len())
	}
	for _, c := range reg.Snapshot() {
		if _, ok := reg.Session(c.ID()); !ok {
			t.Errorf("connection %s has no session", c.ID())
		}
	}
	for _, removed := range []*Conn{conns[1], conns[3]} {
		if _, ok := reg.Session(removed.ID()); ok {
			t.Errorf("removed connection %s still resolves to a session", removed.ID())
		}
		if _, ok := reg.Conn(removed.ID()); ok {
			t.Errorf("removed connection %s still registered", removed.ID())
		}
	}
}

func TestAvatarIDsSequentialAndNeverReused(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")

	a, sessA := newRegistryConn(t, reg)
	_, sessB := newRegistryConn(t, reg)

	if sessA.AvatarID != 1001 || sessB.AvatarID != 1002 {
		t.Fatalf("avatar ids = %d, %d, want 1001, 1002", sessA.AvatarID, sessB.AvatarID)
	}

	reg.Remove(a.ID())
	_, sessC := newRegistryConn(t, reg)
	if sessC.AvatarID != 1003 {
		t.Errorf("avatar id after removal = %d, want 1003", sessC.AvatarID)
	}
}

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("Lobby")

	for i := 1; i <= 3; i++ {
		_, sess := newRegistryConn(t, reg)

		if want := fmt.Sprintf("Guest%d", i); sess.Name != want {
			t.Errorf("Name = %q, want %q", sess.Name, want)
		}
		if sess.Skin < 0 || sess.Skin >= skinCount {
			t.Errorf("Skin = %d, want in [0, %d)", sess.Skin, skinCount)
		}
		if sess.X < -spawnRange || sess.X > spawnRange || sess.Z < -spawnRange || sess.Z > spawnRange {
			t.Errorf("spawn = (%d, %d), want within ±%d", sess.X, sess.Z, spawnRange)
		}
		if sess.Room != "lobby" {
			t.Errorf("Room = %q, want %q", sess.Room, "lobby")
		}
	}
}

// TestExactlyOneRoom checks the membership invariant across joins: a session
// is in exactly one room at every point, never zero, never two.
func TestExactlyOneRoom(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	c, sess := newRegistryConn(t, reg)

	memberships := func() []string {
		var rooms []string
		for name := range reg.Rooms() {
			for _, connID := range reg.RoomMembers(name) {
				if connID == c.ID() {
					rooms = append(rooms, name)
				}
			}
		}
		return rooms
	}

	for _, room := range []string{"tavern", "TAVERN", "cellar", "lobby"} {
		reg.MoveToRoom(c.ID(), room)
		if got := memberships(); len(got) != 1 {
			t.Fatalf("after MoveToRoom(%q): member of %v, want exactly one room", room, got)
		}
		if room == "lobby" && sess.Room != "lobby" {
			t.Errorf("Room = %q, want %q", sess.Room, "lobby")
		}
	}
}

func TestRoomsCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	a, _ := newRegistryConn(t, reg)
	b, _ := newRegistryConn(t, reg)

	reg.MoveToRoom(a.ID(), "Tavern")
	reg.MoveToRoom(b.ID(), "tavern")

	if got := len(reg.RoomMembers("TAVERN")); got != 2 {
		t.Errorf("RoomMembers(TAVERN) = %d members, want 2", got)
	}
	if got := len(reg.Rooms()); got != 2 { // lobby + tavern
		t.Errorf("Rooms() = %d rooms, want 2", got)
	}
}

func TestEmptyRoomsPruned(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	c, _ := newRegistryConn(t, reg)

	reg.MoveToRoom(c.ID(), "tavern")
	reg.MoveToRoom(c.ID(), "cellar")

	rooms := reg.Rooms()
	if _, ok := rooms["tavern"]; ok {
		t.Error("emptied room was not pruned")
	}

	// The default room survives even when empty.
	if _, ok := rooms["lobby"]; !ok {
		t.Error("default room was pruned")
	}

	reg.Remove(c.ID())
	if _, ok := reg.Rooms()["cellar"]; ok {
		t.Error("room was not pruned when its last member was removed")
	}
}

func TestNameTakenCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	a, sessA := newRegistryConn(t, reg)
	b, _ := newRegistryConn(t, reg)

	sessA.Name = "Alice"

	if !reg.NameTaken("alice", b.ID()) {
		t.Error("NameTaken(alice) = false, want true for existing Alice")
	}
	if !reg.NameTaken("ALICE", b.ID()) {
		t.Error("NameTaken(ALICE) = false, want true for existing Alice")
	}
	if reg.NameTaken("Alice", a.ID()) {
		t.Error("NameTaken() counted the session itself")
	}
	if reg.NameTaken("bob", b.ID()) {
		t.Error("NameTaken(bob) = true, want false")
	}
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	a, sessA := newRegistryConn(t, reg)
	sessA.Name = "Alice"

	connID, ok := reg.FindByName("aLiCe")
	if !ok || connID != a.ID() {
		t.Errorf("FindByName(aLiCe) = (%q, %v), want (%q, true)", connID, ok, a.ID())
	}

	if _, ok := reg.FindByName("nobody"); ok {
		t.Error("FindByName(nobody) = true, want false")
	}

	// After eviction no lookup resolves to the old identity.
	reg.Remove(a.ID())
	if _, ok := reg.FindByName("Alice"); ok {
		t.Error("FindByName resolved an evicted session")
	}
}

func TestAvatarsExcludesNewcomer(t *testing.T) {
	t.Parallel()

	reg := NewRegistry("lobby")
	_, sessA := newRegistryConn(t, reg)
	b, _ := newRegistryConn(t, reg)

	avatars := reg.Avatars(b.ID())
	if len(avatars) != 1 {
		t.Fatalf("Avatars() = %d entries, want 1", len(avatars))
	}
	if avatars[0].ID != sessA.AvatarID {
		t.Errorf("Avatars()[0].ID = %d, want %d", avatars[0].ID, sessA.AvatarID)
	}
}
