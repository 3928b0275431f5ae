package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// ValidMessageType reports whether t is one of the accepted content types.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageText, MessageVoice, MessageImage, MessageFile:
		return true
	}
	return false
}

// Message is a persisted chat message. Exactly one of ReceiverID (private
// chat) or GroupID (group chat) is set.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	SenderID   uuid.UUID   `json:"senderId"`
	ReceiverID *uuid.UUID  `json:"receiverId,omitempty"`
	GroupID    *uuid.UUID  `json:"groupId,omitempty"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
	ReadBy     []uuid.UUID `json:"readBy"`
	Delivered  bool        `json:"delivered"`
	Edited     bool        `json:"edited"`
	EditedAt   *time.Time  `json:"editedAt,omitempty"`
}

func (m *Message) IsGroupMessage() bool {
	return m.GroupID != nil
}

type MessageStats struct {
	TotalMessages    int64 `json:"totalMessages"`
	SentMessages     int64 `json:"sentMessages"`
	ReceivedMessages int64 `json:"receivedMessages"`
	UnreadMessages   int64 `json:"unreadMessages"`
}
