package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the persisted side effect of a presence change. The hub's
// in-memory registry remains the source of truth for who is reachable;
// this record only backs the "last seen" display after a user goes offline.
type UserStatus struct {
	UserID   uuid.UUID `json:"userId"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
}
