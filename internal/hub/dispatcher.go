package hub

import (
	"log/slog"

	"github.com/google/uuid"
)

// Dispatcher resolves fanout targets against the registry and room tracker
// and delivers events best-effort. Delivery to an offline target is a silent
// no-op; a slow or closed connection never blocks the caller. Per-connection
// ordering is preserved by the transport's single writer goroutine, so the
// dispatcher itself introduces no reordering.
type Dispatcher struct {
	registry *Registry
	rooms    *RoomTracker
}

func NewDispatcher(registry *Registry, rooms *RoomTracker) *Dispatcher {
	return &Dispatcher{registry: registry, rooms: rooms}
}

// SendToUser delivers an event to the user's live connection, if any.
// It reports whether delivery was attempted on a live connection.
func (d *Dispatcher) SendToUser(userID uuid.UUID, name string, data interface{}) bool {
	conn, ok := d.registry.Lookup(userID)
	if !ok {
		return false
	}
	if !conn.Send(Event{Name: name, Data: data}) {
		slog.Warn("event dropped", "event", name, "userId", userID, "conn", conn.ID())
		return false
	}
	return true
}

// SendToUsers delivers an event to each user that is online and returns the
// number of deliveries. Partial delivery is expected, not an error.
func (d *Dispatcher) SendToUsers(userIDs []uuid.UUID, name string, data interface{}) int {
	delivered := 0
	for _, id := range userIDs {
		if d.SendToUser(id, name, data) {
			delivered++
		}
	}
	return delivered
}

// SendToRoom delivers an event to every live member of room except exclude
// (pass nil to deliver to all members).
func (d *Dispatcher) SendToRoom(room Room, name string, data interface{}, exclude Conn) {
	for _, conn := range d.rooms.Members(room) {
		if exclude != nil && conn.ID() == exclude.ID() {
			continue
		}
		if !conn.Send(Event{Name: name, Data: data}) {
			slog.Warn("event dropped", "event", name, "conn", conn.ID())
		}
	}
}

// Broadcast delivers an event to every registered connection except exclude.
// Used for user-status announcements.
func (d *Dispatcher) Broadcast(name string, data interface{}, exclude Conn) {
	for _, conn := range d.registry.Conns() {
		if exclude != nil && conn.ID() == exclude.ID() {
			continue
		}
		conn.Send(Event{Name: name, Data: data})
	}
}
