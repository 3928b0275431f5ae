package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/call"
	"github.com/mohammad-sahal/chat-app/internal/models"
)

// Kind enumerates every inbound event the socket accepts. The router
// dispatches over this set exhaustively; an unlisted name is rejected at
// the parse step, never silently ignored.
type Kind string

const (
	KindJoin           Kind = "join"
	KindJoinGroup      Kind = "join-group"
	KindLeaveGroup     Kind = "leave-group"
	KindPrivateMessage Kind = "private-message"
	KindGroupMessage   Kind = "group-message"
	KindTyping         Kind = "typing"
	KindStopTyping     Kind = "stop-typing"
	KindDeleteMessage  Kind = "delete-message"
	KindEditMessage    Kind = "edit-message"
	KindMarkRead       Kind = "mark-read"
	KindCallUser       Kind = "call-user"
	KindAnswerCall     Kind = "answer-call"
	KindCallDeclined   Kind = "call-declined"
	KindEndCall        Kind = "end-call"
	KindIceCandidate   Kind = "ice-candidate"
)

// ParseKind maps a wire event name onto the inbound enumeration.
func ParseKind(name string) (Kind, bool) {
	switch k := Kind(name); k {
	case KindJoin, KindJoinGroup, KindLeaveGroup,
		KindPrivateMessage, KindGroupMessage,
		KindTyping, KindStopTyping,
		KindDeleteMessage, KindEditMessage, KindMarkRead,
		KindCallUser, KindAnswerCall, KindCallDeclined, KindEndCall,
		KindIceCandidate:
		return k, true
	}
	return "", false
}

// Outbound event names that do not mirror an inbound kind one-to-one.
const (
	EventMessageDeleted = "message-deleted"
	EventMessageEdited  = "message-edited"
	EventMessageRead    = "message-read"
	EventUserStatus     = "user-status"
	EventCallFailed     = "call-failed"
	EventError          = "error"
)

// Envelope is the wire frame of every inbound event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type GroupRoomPayload struct {
	GroupID uuid.UUID `json:"groupId"`
}

type PrivateMessagePayload struct {
	SenderID   uuid.UUID          `json:"senderId"`
	ReceiverID uuid.UUID          `json:"receiverId"`
	Content    string             `json:"content"`
	Type       models.MessageType `json:"type,omitempty"`
}

type GroupMessagePayload struct {
	SenderID uuid.UUID          `json:"senderId"`
	GroupID  uuid.UUID          `json:"groupId"`
	Content  string             `json:"content"`
	Type     models.MessageType `json:"type,omitempty"`
}

// TypingPayload targets exactly one of a private peer or a group room.
type TypingPayload struct {
	SenderID   uuid.UUID  `json:"senderId"`
	ReceiverID *uuid.UUID `json:"receiverId,omitempty"`
	GroupID    *uuid.UUID `json:"groupId,omitempty"`
}

type DeleteMessagePayload struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
}

type EditMessagePayload struct {
	MessageID  uuid.UUID `json:"messageId"`
	NewContent string    `json:"newContent"`
	UserID     uuid.UUID `json:"userId"`
}

type MarkReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
	ChatID    uuid.UUID `json:"chatId"`
	ChatType  string    `json:"chatType"`
}

type CallUserPayload struct {
	From       uuid.UUID       `json:"from"`
	UserToCall uuid.UUID       `json:"userToCall"`
	CallType   call.Kind       `json:"callType"`
	SignalData json.RawMessage `json:"signalData"`
	Name       string          `json:"name"`
}

type AnswerCallPayload struct {
	To     uuid.UUID       `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type CallTargetPayload struct {
	To uuid.UUID `json:"to"`
}

type IceCandidatePayload struct {
	To        uuid.UUID       `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

// TypingNotice is fanned out to the typing target room.
type TypingNotice struct {
	SenderID uuid.UUID  `json:"senderId"`
	GroupID  *uuid.UUID `json:"groupId,omitempty"`
}

// DeletedNotice is fanned out to the original audience of a deleted message.
type DeletedNotice struct {
	MessageID uuid.UUID  `json:"messageId"`
	GroupID   *uuid.UUID `json:"groupId,omitempty"`
}

// ReadReceipt is delivered to the original sender only.
type ReadReceipt struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
	ChatID    uuid.UUID `json:"chatId"`
	ChatType  string    `json:"chatType"`
}

// StatusNotice announces a presence change to every other connection.
type StatusNotice struct {
	UserID    uuid.UUID `json:"userId"`
	Online    bool      `json:"online"`
	Timestamp int64     `json:"timestamp"`
}
