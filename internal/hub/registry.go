package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry maps each user to at most one live connection. It is the single
// source of truth for who is reachable right now: a user is online iff the
// registry holds a connection for them.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]Conn
	byConn map[string]uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uuid.UUID]Conn),
		byConn: make(map[string]uuid.UUID),
	}
}

// Register binds a verified identity to a connection. If the user already
// has a live connection the new binding replaces it (last writer wins) and
// the superseded connection is returned so the transport layer can close it.
func (r *Registry) Register(userID uuid.UUID, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.byUser[userID]
	if previous != nil {
		delete(r.byConn, previous.ID())
		slog.Info("connection superseded", "userId", userID, "oldConn", previous.ID(), "newConn", conn.ID())
	}

	r.byUser[userID] = conn
	r.byConn[conn.ID()] = userID
	return previous
}

// Unregister removes the binding owned by conn. It is a no-op when conn is
// not the currently registered connection for its user, so a slow teardown
// of a superseded connection can never clobber a newer registration.
// The bound user ID is returned when a binding was actually removed.
func (r *Registry) Unregister(conn Conn) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return uuid.Nil, false
	}
	current := r.byUser[userID]
	if current == nil || current.ID() != conn.ID() {
		return uuid.Nil, false
	}

	delete(r.byUser, userID)
	delete(r.byConn, conn.ID())
	return userID, true
}

func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// UserOf resolves the identity bound to a connection, if any.
func (r *Registry) UserOf(conn Conn) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[conn.ID()]
	return userID, ok
}

func (r *Registry) OnlineUserIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

// Conns returns a snapshot of every live connection.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.byUser))
	for _, conn := range r.byUser {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
