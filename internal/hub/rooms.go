package hub

import (
	"sync"

	"github.com/google/uuid"
)

type RoomKind uint8

const (
	// RoomPersonal is a user's own delivery channel; every authenticated
	// connection joins its owner's personal room.
	RoomPersonal RoomKind = iota
	// RoomGroup is a shared channel keyed by group ID. The in-memory
	// membership set caches who is connected and joined; the authoritative
	// roster lives in the group store.
	RoomGroup
)

// Room identifies a delivery target for fanout.
type Room struct {
	Kind RoomKind
	ID   uuid.UUID
}

func PersonalRoom(userID uuid.UUID) Room {
	return Room{Kind: RoomPersonal, ID: userID}
}

func GroupRoom(groupID uuid.UUID) Room {
	return Room{Kind: RoomGroup, ID: groupID}
}

// RoomTracker maintains the live membership set of each room.
type RoomTracker struct {
	mu     sync.RWMutex
	rooms  map[Room]map[string]Conn
	joined map[string]map[Room]struct{}
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		rooms:  make(map[Room]map[string]Conn),
		joined: make(map[string]map[Room]struct{}),
	}
}

// Join adds conn to room's membership set. Idempotent.
func (t *RoomTracker) Join(conn Conn, room Room) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[room]
	if !ok {
		members = make(map[string]Conn)
		t.rooms[room] = members
	}
	members[conn.ID()] = conn

	rooms, ok := t.joined[conn.ID()]
	if !ok {
		rooms = make(map[Room]struct{})
		t.joined[conn.ID()] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes conn from room's membership set. Idempotent.
func (t *RoomTracker) Leave(conn Conn, room Room) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leave(conn, room)
}

func (t *RoomTracker) leave(conn Conn, room Room) {
	if members, ok := t.rooms[room]; ok {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(t.rooms, room)
		}
	}
	if rooms, ok := t.joined[conn.ID()]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(t.joined, conn.ID())
		}
	}
}

// LeaveAll removes conn from every room it had joined. Called on connection
// teardown so no room holds a dangling reference.
func (t *RoomTracker) LeaveAll(conn Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for room := range t.joined[conn.ID()] {
		t.leave(conn, room)
	}
}

// Members returns a snapshot of the live connections currently joined.
func (t *RoomTracker) Members(room Room) []Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members := make([]Conn, 0, len(t.rooms[room]))
	for _, conn := range t.rooms[room] {
		members = append(members, conn)
	}
	return members
}

// Rooms returns a snapshot of the rooms conn has joined.
func (t *RoomTracker) Rooms(conn Conn) []Room {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rooms := make([]Room, 0, len(t.joined[conn.ID()]))
	for room := range t.joined[conn.ID()] {
		rooms = append(rooms, room)
	}
	return rooms
}
