package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDispatcher_SendToUser tests targeted delivery and the offline no-op
func TestDispatcher_SendToUser(t *testing.T) {
	registry := NewRegistry()
	tracker := NewRoomTracker()
	dispatcher := NewDispatcher(registry, tracker)

	userID := uuid.New()
	conn := newFakeConn("conn-1")
	registry.Register(userID, conn)

	delivered := dispatcher.SendToUser(userID, "private-message", map[string]string{"content": "hi"})
	assert.True(t, delivered)

	events := conn.received()
	require.Len(t, events, 1)
	assert.Equal(t, "private-message", events[0].Name)

	// Offline target is a silent no-op, never an error
	delivered = dispatcher.SendToUser(uuid.New(), "private-message", nil)
	assert.False(t, delivered)
	assert.Len(t, conn.received(), 1)
}

// TestDispatcher_SendToUserDroppedEvent tests that a full or closed
// connection reports a failed delivery without affecting the caller
func TestDispatcher_SendToUserDroppedEvent(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, NewRoomTracker())

	userID := uuid.New()
	conn := newFakeConn("conn-1")
	registry.Register(userID, conn)
	conn.close()

	assert.False(t, dispatcher.SendToUser(userID, "typing", nil))
}

// TestDispatcher_SendToUsers tests partial delivery to a mixed set of
// online and offline users
func TestDispatcher_SendToUsers(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, NewRoomTracker())

	online := uuid.New()
	offline := uuid.New()
	conn := newFakeConn("conn-1")
	registry.Register(online, conn)

	delivered := dispatcher.SendToUsers([]uuid.UUID{online, offline}, "user-status", nil)
	assert.Equal(t, 1, delivered)
	assert.Len(t, conn.received(), 1)
}

// TestDispatcher_SendToRoomExcludes tests room fanout with originator
// exclusion
func TestDispatcher_SendToRoomExcludes(t *testing.T) {
	registry := NewRegistry()
	tracker := NewRoomTracker()
	dispatcher := NewDispatcher(registry, tracker)

	room := GroupRoom(uuid.New())
	sender := newFakeConn("conn-sender")
	memberA := newFakeConn("conn-a")
	memberB := newFakeConn("conn-b")
	tracker.Join(sender, room)
	tracker.Join(memberA, room)
	tracker.Join(memberB, room)

	dispatcher.SendToRoom(room, "typing", nil, sender)

	assert.Empty(t, sender.received(), "originator must not receive its own typing event")
	assert.Len(t, memberA.received(), 1)
	assert.Len(t, memberB.received(), 1)

	// nil exclude delivers to everyone
	dispatcher.SendToRoom(room, "group-message", nil, nil)
	assert.Len(t, sender.received(), 1)
	assert.Len(t, memberA.received(), 2)
}

// TestDispatcher_Broadcast tests registry-wide fanout with exclusion
func TestDispatcher_Broadcast(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, NewRoomTracker())

	origin := newFakeConn("conn-origin")
	other := newFakeConn("conn-other")
	registry.Register(uuid.New(), origin)
	registry.Register(uuid.New(), other)

	dispatcher.Broadcast("user-status", map[string]bool{"online": true}, origin)

	assert.Empty(t, origin.received())
	require.Len(t, other.received(), 1)
	assert.Equal(t, "user-status", other.received()[0].Name)
}

// TestDispatcher_PerConnectionOrdering tests that successive sends arrive
// in submission order on a single connection
func TestDispatcher_PerConnectionOrdering(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, NewRoomTracker())

	userID := uuid.New()
	conn := newFakeConn("conn-1")
	registry.Register(userID, conn)

	dispatcher.SendToUser(userID, "first", nil)
	dispatcher.SendToUser(userID, "second", nil)
	dispatcher.SendToUser(userID, "third", nil)

	assert.Equal(t, []string{"first", "second", "third"}, conn.eventNames())
}
