package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoomTracker_JoinIsIdempotent tests that joining the same room twice
// leaves a single membership
func TestRoomTracker_JoinIsIdempotent(t *testing.T) {
	tracker := NewRoomTracker()
	conn := newFakeConn("conn-1")
	room := GroupRoom(uuid.New())

	tracker.Join(conn, room)
	tracker.Join(conn, room)

	members := tracker.Members(room)
	require.Len(t, members, 1)
	assert.Equal(t, "conn-1", members[0].ID())
	assert.Len(t, tracker.Rooms(conn), 1)
}

// TestRoomTracker_Leave tests leaving a room, including leaving one the
// connection never joined
func TestRoomTracker_Leave(t *testing.T) {
	tracker := NewRoomTracker()
	conn := newFakeConn("conn-1")
	room := GroupRoom(uuid.New())

	tracker.Join(conn, room)
	tracker.Leave(conn, room)
	assert.Empty(t, tracker.Members(room))
	assert.Empty(t, tracker.Rooms(conn))

	// Leaving again is a no-op
	tracker.Leave(conn, room)
	assert.Empty(t, tracker.Members(room))
}

// TestRoomTracker_LeaveAll tests teardown removes the connection from every
// room it joined without touching other members
func TestRoomTracker_LeaveAll(t *testing.T) {
	tracker := NewRoomTracker()
	leaving := newFakeConn("conn-1")
	staying := newFakeConn("conn-2")

	personal := PersonalRoom(uuid.New())
	groupA := GroupRoom(uuid.New())
	groupB := GroupRoom(uuid.New())

	tracker.Join(leaving, personal)
	tracker.Join(leaving, groupA)
	tracker.Join(leaving, groupB)
	tracker.Join(staying, groupA)

	tracker.LeaveAll(leaving)

	assert.Empty(t, tracker.Rooms(leaving))
	assert.Empty(t, tracker.Members(personal))
	assert.Empty(t, tracker.Members(groupB))

	members := tracker.Members(groupA)
	require.Len(t, members, 1, "other members must survive a teardown")
	assert.Equal(t, "conn-2", members[0].ID())
}

// TestRoomTracker_PersonalAndGroupRoomsAreDistinct tests that a personal
// room and a group room with the same ID do not collide
func TestRoomTracker_PersonalAndGroupRoomsAreDistinct(t *testing.T) {
	tracker := NewRoomTracker()
	conn := newFakeConn("conn-1")
	id := uuid.New()

	tracker.Join(conn, PersonalRoom(id))

	assert.Len(t, tracker.Members(PersonalRoom(id)), 1)
	assert.Empty(t, tracker.Members(GroupRoom(id)))
}
