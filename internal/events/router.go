package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/call"
	"github.com/mohammad-sahal/chat-app/internal/hub"
	"github.com/mohammad-sahal/chat-app/internal/models"
	"github.com/mohammad-sahal/chat-app/internal/ratelimit"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
)

// Router validates every inbound event and orchestrates persistence and
// fanout. Persistence always happens before fanout; a failed persistence
// call produces an error event for the originator and nothing else.
type Router struct {
	registry   *hub.Registry
	rooms      *hub.RoomTracker
	dispatcher *hub.Dispatcher
	calls      *call.Coordinator
	messages   repositories.MessageRepository
	groups     repositories.GroupRepository
	status     repositories.StatusRepository
	limiter    *ratelimit.Limiter
}

func NewRouter(
	registry *hub.Registry,
	rooms *hub.RoomTracker,
	dispatcher *hub.Dispatcher,
	calls *call.Coordinator,
	messages repositories.MessageRepository,
	groups repositories.GroupRepository,
	status repositories.StatusRepository,
	limiter *ratelimit.Limiter,
) *Router {
	return &Router{
		registry:   registry,
		rooms:      rooms,
		dispatcher: dispatcher,
		calls:      calls,
		messages:   messages,
		groups:     groups,
		status:     status,
		limiter:    limiter,
	}
}

// HandleEvent processes one inbound frame from conn. userID is the identity
// the transport authenticated for this connection. Handler failures are
// converted to a single `error` event on the originating connection; they
// never affect other connections.
func (r *Router) HandleEvent(ctx context.Context, conn hub.Conn, userID uuid.UUID, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		r.sendError(conn, "", Validation("malformed event frame"))
		return
	}

	kind, ok := ParseKind(envelope.Event)
	if !ok {
		r.sendError(conn, envelope.Event, &HandlerError{Code: CodeUnknownEvent, Message: "unknown event: " + envelope.Event})
		return
	}

	if err := r.dispatch(ctx, kind, conn, userID, envelope.Data); err != nil {
		var evErr *HandlerError
		if !errors.As(err, &evErr) {
			slog.Error("event handler failed", "event", kind, "userId", userID, "err", err)
			evErr = Persistence("internal error")
		}
		r.sendError(conn, string(kind), evErr)
	}
}

// dispatch is the exhaustive handler table: every inbound Kind has a case.
func (r *Router) dispatch(ctx context.Context, kind Kind, conn hub.Conn, userID uuid.UUID, data json.RawMessage) error {
	switch kind {
	case KindJoin:
		return r.handleJoin(ctx, conn, userID, data)
	case KindJoinGroup:
		return r.handleJoinGroup(ctx, conn, userID, data)
	case KindLeaveGroup:
		return r.handleLeaveGroup(conn, data)
	case KindPrivateMessage:
		return r.handlePrivateMessage(ctx, userID, data)
	case KindGroupMessage:
		return r.handleGroupMessage(ctx, userID, data)
	case KindTyping:
		return r.handleTyping(conn, userID, data, string(KindTyping))
	case KindStopTyping:
		return r.handleTyping(conn, userID, data, string(KindStopTyping))
	case KindDeleteMessage:
		return r.handleDeleteMessage(ctx, userID, data)
	case KindEditMessage:
		return r.handleEditMessage(ctx, userID, data)
	case KindMarkRead:
		return r.handleMarkRead(ctx, userID, data)
	case KindCallUser:
		return r.handleCallUser(conn, userID, data)
	case KindAnswerCall:
		return r.handleAnswerCall(userID, data)
	case KindCallDeclined:
		r.calls.Decline(userID)
		return nil
	case KindEndCall:
		r.calls.End(userID)
		return nil
	case KindIceCandidate:
		return r.handleIceCandidate(userID, data)
	}
	return &HandlerError{Code: CodeUnknownEvent, Message: "unknown event"}
}

// HandleDisconnect runs the teardown path for conn: room cleanup always,
// then presence and call cleanup only when conn still owned its user's
// registration (a superseded connection must not knock a newer one offline).
func (r *Router) HandleDisconnect(ctx context.Context, conn hub.Conn) {
	r.rooms.LeaveAll(conn)

	userID, ok := r.registry.Unregister(conn)
	if !ok {
		return
	}

	r.calls.HandleDisconnect(userID)

	if err := r.status.SetStatus(ctx, userID, false); err != nil {
		slog.Warn("failed to persist offline status", "userId", userID, "err", err)
	}
	r.dispatcher.Broadcast(EventUserStatus, StatusNotice{
		UserID:    userID,
		Online:    false,
		Timestamp: time.Now().UnixMilli(),
	}, nil)
	slog.Info("user went offline", "userId", userID)
}

func (r *Router) handleJoin(ctx context.Context, conn hub.Conn, userID uuid.UUID, data json.RawMessage) error {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid join payload")
	}
	if payload.UserID == uuid.Nil {
		return Validation("userId is required")
	}
	if payload.UserID != userID {
		return Unauthorized("cannot join as another user")
	}

	r.registry.Register(userID, conn)
	r.rooms.Join(conn, hub.PersonalRoom(userID))

	if err := r.status.SetStatus(ctx, userID, true); err != nil {
		slog.Warn("failed to persist online status", "userId", userID, "err", err)
	}
	r.dispatcher.Broadcast(EventUserStatus, StatusNotice{
		UserID:    userID,
		Online:    true,
		Timestamp: time.Now().UnixMilli(),
	}, conn)
	slog.Info("user joined", "userId", userID, "conn", conn.ID())
	return nil
}

func (r *Router) handleJoinGroup(ctx context.Context, conn hub.Conn, userID uuid.UUID, data json.RawMessage) error {
	var payload GroupRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid join-group payload")
	}
	if payload.GroupID == uuid.Nil {
		return Validation("groupId is required")
	}

	group, err := r.groups.GetByID(ctx, payload.GroupID)
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("group not found")
	}
	if err != nil {
		return Persistence("failed to load group")
	}
	if !group.HasMember(userID) {
		return Unauthorized("not a member of this group")
	}

	r.rooms.Join(conn, hub.GroupRoom(payload.GroupID))
	return nil
}

func (r *Router) handleLeaveGroup(conn hub.Conn, data json.RawMessage) error {
	var payload GroupRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid leave-group payload")
	}
	if payload.GroupID == uuid.Nil {
		return Validation("groupId is required")
	}

	r.rooms.Leave(conn, hub.GroupRoom(payload.GroupID))
	return nil
}

func (r *Router) handlePrivateMessage(ctx context.Context, userID uuid.UUID, data json.RawMessage) error {
	var payload PrivateMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid private-message payload")
	}
	if payload.SenderID == uuid.Nil {
		return Validation("senderId is required")
	}
	if payload.SenderID != userID {
		return Unauthorized("senderId does not match connection identity")
	}
	if payload.ReceiverID == uuid.Nil {
		return Validation("receiverId is required")
	}
	if payload.Content == "" {
		return Validation("content is required")
	}
	messageType, err := normalizeType(payload.Type)
	if err != nil {
		return err
	}
	if !r.limiter.Allow(userID.String()) {
		return &HandlerError{Code: CodeRateLimited, Message: "too many messages, slow down"}
	}

	message := &models.Message{
		SenderID:   payload.SenderID,
		ReceiverID: &payload.ReceiverID,
		Content:    payload.Content,
		Type:       messageType,
	}
	if err := r.messages.Create(ctx, message); err != nil {
		slog.Error("failed to persist private message", "senderId", userID, "err", err)
		return Persistence("failed to save message")
	}

	// Both personal rooms get the persisted message, sender included, so
	// every device of the sender stays consistent.
	r.dispatcher.SendToRoom(hub.PersonalRoom(payload.SenderID), string(KindPrivateMessage), message, nil)
	r.dispatcher.SendToRoom(hub.PersonalRoom(payload.ReceiverID), string(KindPrivateMessage), message, nil)
	return nil
}

func (r *Router) handleGroupMessage(ctx context.Context, userID uuid.UUID, data json.RawMessage) error {
	var payload GroupMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid group-message payload")
	}
	if payload.SenderID == uuid.Nil {
		return Validation("senderId is required")
	}
	if payload.SenderID != userID {
		return Unauthorized("senderId does not match connection identity")
	}
	if payload.GroupID == uuid.Nil {
		return Validation("groupId is required")
	}
	if payload.Content == "" {
		return Validation("content is required")
	}
	messageType, err := normalizeType(payload.Type)
	if err != nil {
		return err
	}
	if !r.limiter.Allow(userID.String()) {
		return &HandlerError{Code: CodeRateLimited, Message: "too many messages, slow down"}
	}

	group, err := r.groups.GetByID(ctx, payload.GroupID)
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("group not found")
	}
	if err != nil {
		return Persistence("failed to load group")
	}
	if !group.HasMember(userID) {
		return Unauthorized("not a member of this group")
	}

	message := &models.Message{
		SenderID: payload.SenderID,
		GroupID:  &payload.GroupID,
		Content:  payload.Content,
		Type:     messageType,
	}
	if err := r.messages.Create(ctx, message); err != nil {
		slog.Error("failed to persist group message", "senderId", userID, "groupId", payload.GroupID, "err", err)
		return Persistence("failed to save message")
	}

	r.dispatcher.SendToRoom(hub.GroupRoom(payload.GroupID), string(KindGroupMessage), message, nil)
	return nil
}

func (r *Router) handleTyping(conn hub.Conn, userID uuid.UUID, data json.RawMessage, event string) error {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid typing payload")
	}
	if payload.SenderID == uuid.Nil {
		return Validation("senderId is required")
	}
	if (payload.ReceiverID == nil) == (payload.GroupID == nil) {
		return Validation("exactly one of receiverId or groupId is required")
	}

	notice := TypingNotice{SenderID: payload.SenderID, GroupID: payload.GroupID}
	if payload.ReceiverID != nil {
		r.dispatcher.SendToRoom(hub.PersonalRoom(*payload.ReceiverID), event, notice, conn)
	} else {
		r.dispatcher.SendToRoom(hub.GroupRoom(*payload.GroupID), event, notice, conn)
	}
	return nil
}

func (r *Router) handleDeleteMessage(ctx context.Context, userID uuid.UUID, data json.RawMessage) error {
	var payload DeleteMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid delete-message payload")
	}
	if payload.MessageID == uuid.Nil {
		return Validation("messageId is required")
	}

	message, err := r.messages.GetByID(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("message not found")
	}
	if err != nil {
		return Persistence("failed to load message")
	}
	if message.SenderID != userID {
		return Unauthorized("only the sender can delete a message")
	}

	if err := r.messages.Delete(ctx, payload.MessageID); err != nil {
		return Persistence("failed to delete message")
	}

	r.fanoutToAudience(message, EventMessageDeleted, DeletedNotice{
		MessageID: message.ID,
		GroupID:   message.GroupID,
	})
	return nil
}

func (r *Router) handleEditMessage(ctx context.Context, userID uuid.UUID, data json.RawMessage) error {
	var payload EditMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid edit-message payload")
	}
	if payload.MessageID == uuid.Nil {
		return Validation("messageId is required")
	}
	if payload.NewContent == "" {
		return Validation("newContent is required")
	}

	message, err := r.messages.GetByID(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("message not found")
	}
	if err != nil {
		return Persistence("failed to load message")
	}
	if message.SenderID != userID {
		return Unauthorized("only the sender can edit a message")
	}
	if message.Type != models.MessageText {
		return Validation("only text messages can be edited")
	}

	updated, err := r.messages.Edit(ctx, payload.MessageID, payload.NewContent)
	if err != nil {
		return Persistence("failed to edit message")
	}

	r.fanoutToAudience(updated, EventMessageEdited, updated)
	return nil
}

func (r *Router) handleMarkRead(ctx context.Context, userID uuid.UUID, data json.RawMessage) error {
	var payload MarkReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid mark-read payload")
	}
	if payload.MessageID == uuid.Nil {
		return Validation("messageId is required")
	}

	message, err := r.messages.GetByID(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound("message not found")
	}
	if err != nil {
		return Persistence("failed to load message")
	}
	if message.SenderID == userID {
		return Unauthorized("cannot mark your own message as read")
	}

	added, err := r.messages.MarkRead(ctx, payload.MessageID, userID)
	if err != nil {
		return Persistence("failed to mark message read")
	}
	if !added {
		// Already read: the receipt was delivered the first time.
		return nil
	}

	r.dispatcher.SendToUser(message.SenderID, EventMessageRead, ReadReceipt{
		MessageID: payload.MessageID,
		UserID:    userID,
		ChatID:    payload.ChatID,
		ChatType:  payload.ChatType,
	})
	return nil
}

func (r *Router) handleCallUser(conn hub.Conn, userID uuid.UUID, data json.RawMessage) error {
	var payload CallUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid call-user payload")
	}
	if payload.From == uuid.Nil || payload.UserToCall == uuid.Nil {
		return Validation("caller and callee IDs are required")
	}
	if payload.From != userID {
		return Unauthorized("cannot place a call as another user")
	}
	if !call.ValidKind(payload.CallType) {
		return Validation("callType must be voice or video")
	}

	_, err := r.calls.Initiate(payload.From, payload.UserToCall, payload.CallType, payload.Name, payload.SignalData)
	if errors.Is(err, call.ErrBusy) {
		// Surfaced as a declined-style event rather than a hard error so
		// clients reuse their call-teardown path.
		conn.Send(hub.Event{Name: EventCallFailed, Data: ErrorPayload{
			Event:   string(KindCallUser),
			Message: "user is already in a call",
			Code:    CodeBusy,
		}})
		return nil
	}
	return err
}

func (r *Router) handleAnswerCall(userID uuid.UUID, data json.RawMessage) error {
	var payload AnswerCallPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid answer-call payload")
	}

	r.calls.Answer(userID, payload.Signal)
	return nil
}

func (r *Router) handleIceCandidate(userID uuid.UUID, data json.RawMessage) error {
	var payload IceCandidatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Validation("invalid ice-candidate payload")
	}
	if payload.To == uuid.Nil {
		return Validation("target user is required")
	}

	// Opaque relay; the candidate is never interpreted here.
	r.dispatcher.SendToUser(payload.To, string(KindIceCandidate), payload.Candidate)
	return nil
}

// fanoutToAudience delivers an event to the same audience the original
// message reached: the live group room for group messages, both personal
// rooms for private ones.
func (r *Router) fanoutToAudience(message *models.Message, event string, data interface{}) {
	if message.IsGroupMessage() {
		r.dispatcher.SendToRoom(hub.GroupRoom(*message.GroupID), event, data, nil)
		return
	}
	r.dispatcher.SendToRoom(hub.PersonalRoom(message.SenderID), event, data, nil)
	if message.ReceiverID != nil {
		r.dispatcher.SendToRoom(hub.PersonalRoom(*message.ReceiverID), event, data, nil)
	}
}

func (r *Router) sendError(conn hub.Conn, event string, evErr *HandlerError) {
	conn.Send(hub.Event{Name: EventError, Data: ErrorPayload{
		Event:   event,
		Message: evErr.Message,
		Code:    evErr.Code,
	}})
}

func normalizeType(t models.MessageType) (models.MessageType, error) {
	if t == "" {
		return models.MessageText, nil
	}
	if !models.ValidMessageType(t) {
		return "", Validation("type must be one of text, voice, image, file")
	}
	return t, nil
}
