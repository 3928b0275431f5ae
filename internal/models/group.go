package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	Description string      `json:"description"`
	AdminID     uuid.UUID   `json:"adminId"`
	MemberIDs   []uuid.UUID `json:"memberIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (g *Group) HasMember(userID uuid.UUID) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
