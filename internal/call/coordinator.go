package call

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusy is returned by Initiate when either participant already has a
// session that has not reached a terminal state.
var ErrBusy = errors.New("participant is already in a call")

type Kind string

const (
	KindVoice Kind = "voice"
	KindVideo Kind = "video"
)

func ValidKind(k Kind) bool {
	return k == KindVoice || k == KindVideo
}

type Status string

const (
	StatusRinging Status = "ringing"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Outbound call signaling events.
const (
	EventOffer    = "call-offer"
	EventAnswered = "call-answered"
	EventDeclined = "call-declined"
	EventEnded    = "call-ended"
	EventTimeout  = "call-timeout"
)

// Notifier delivers signaling events to participants. Implemented by the
// hub dispatcher.
type Notifier interface {
	SendToUser(userID uuid.UUID, event string, data interface{}) bool
}

// session is one call attempt from initiation to termination. It is owned
// exclusively by the Coordinator; all access goes through its operations.
type session struct {
	id         string
	caller     uuid.UUID
	callee     uuid.UUID
	kind       Kind
	status     Status
	createdAt  time.Time
	answeredAt time.Time
	ringTimer  *time.Timer
}

func (s *session) other(userID uuid.UUID) uuid.UUID {
	if s.caller == userID {
		return s.callee
	}
	return s.caller
}

// Coordinator tracks every ongoing call attempt, cross-indexed by call ID
// and by both participant identities so at most one non-terminal session
// exists per user. All three indexes mutate atomically under one mutex;
// a session is never observable in one index after leaving another.
type Coordinator struct {
	mu          sync.Mutex
	sessions    map[string]*session
	byUser      map[uuid.UUID]string
	notify      Notifier
	ringTimeout time.Duration
}

// NewCoordinator creates a coordinator that ends unanswered calls after
// ringTimeout.
func NewCoordinator(notify Notifier, ringTimeout time.Duration) *Coordinator {
	return &Coordinator{
		sessions:    make(map[string]*session),
		byUser:      make(map[uuid.UUID]string),
		notify:      notify,
		ringTimeout: ringTimeout,
	}
}

// OfferPayload is delivered to the callee on call initiation. Signal is the
// caller's opaque offer, relayed without interpretation.
type OfferPayload struct {
	CallID     string          `json:"callId"`
	From       uuid.UUID       `json:"from"`
	CallerName string          `json:"name"`
	CallType   Kind            `json:"callType"`
	Signal     json.RawMessage `json:"signal"`
}

// AnswerPayload is delivered to the caller when the callee answers.
type AnswerPayload struct {
	CallID string          `json:"callId"`
	Signal json.RawMessage `json:"signal"`
}

// EndPayload is delivered on every terminal transition.
type EndPayload struct {
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

// Initiate creates a ringing session between caller and callee and delivers
// the offer to the callee. It fails with ErrBusy when either participant is
// already in a non-terminal session. The unanswered-call timer is armed here
// and re-checks the session status when it fires, so a timer that loses a
// race against answer or end is a no-op.
func (c *Coordinator) Initiate(callerID, calleeID uuid.UUID, kind Kind, callerName string, signal json.RawMessage) (string, error) {
	c.mu.Lock()
	if _, busy := c.byUser[callerID]; busy {
		c.mu.Unlock()
		return "", ErrBusy
	}
	if _, busy := c.byUser[calleeID]; busy {
		c.mu.Unlock()
		return "", ErrBusy
	}

	now := time.Now()
	callID := fmt.Sprintf("%s_%s_%d", callerID, calleeID, now.UnixMilli())
	s := &session{
		id:        callID,
		caller:    callerID,
		callee:    calleeID,
		kind:      kind,
		status:    StatusRinging,
		createdAt: now,
	}
	s.ringTimer = time.AfterFunc(c.ringTimeout, func() { c.timeoutFire(callID) })

	c.sessions[callID] = s
	c.byUser[callerID] = callID
	c.byUser[calleeID] = callID
	c.mu.Unlock()

	slog.Info("call session created", "callId", callID, "caller", callerID, "callee", calleeID, "kind", kind)

	c.notify.SendToUser(calleeID, EventOffer, OfferPayload{
		CallID:     callID,
		From:       callerID,
		CallerName: callerName,
		CallType:   kind,
		Signal:     signal,
	})
	return callID, nil
}

// Answer transitions the responding user's session from ringing to active
// and relays the answer signal to the caller. A late or duplicate answer
// (no session, or session no longer ringing) is tolerated as a no-op.
func (c *Coordinator) Answer(userID uuid.UUID, signal json.RawMessage) {
	c.mu.Lock()
	s := c.lookup(userID)
	if s == nil || s.status != StatusRinging {
		c.mu.Unlock()
		return
	}
	s.status = StatusActive
	s.answeredAt = time.Now()
	s.ringTimer.Stop()
	caller := s.caller
	callID := s.id
	c.mu.Unlock()

	slog.Info("call answered", "callId", callID, "callee", userID)
	c.notify.SendToUser(caller, EventAnswered, AnswerPayload{CallID: callID, Signal: signal})
}

// Decline ends the responding user's ringing session and notifies the other
// participant. A no-op when no ringing session is indexed under the user.
func (c *Coordinator) Decline(userID uuid.UUID) {
	c.mu.Lock()
	s := c.lookup(userID)
	if s == nil || s.status != StatusRinging {
		c.mu.Unlock()
		return
	}
	c.terminate(s)
	other := s.other(userID)
	callID := s.id
	c.mu.Unlock()

	slog.Info("call declined", "callId", callID, "by", userID)
	c.notify.SendToUser(other, EventDeclined, EndPayload{CallID: callID})
}

// End terminates the requesting user's session regardless of its current
// state (works while ringing and while active) and notifies the other
// participant.
func (c *Coordinator) End(userID uuid.UUID) {
	c.mu.Lock()
	s := c.lookup(userID)
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.terminate(s)
	other := s.other(userID)
	callID := s.id
	c.mu.Unlock()

	slog.Info("call ended", "callId", callID, "by", userID)
	c.notify.SendToUser(other, EventEnded, EndPayload{CallID: callID})
}

// HandleDisconnect ends any non-terminal session the disconnecting user is
// part of and tells the other participant why. Invoked from the connection
// teardown path so a session never outlives both participants.
func (c *Coordinator) HandleDisconnect(userID uuid.UUID) {
	c.mu.Lock()
	s := c.lookup(userID)
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.terminate(s)
	other := s.other(userID)
	callID := s.id
	c.mu.Unlock()

	slog.Info("call ended by disconnect", "callId", callID, "disconnected", userID)
	c.notify.SendToUser(other, EventEnded, EndPayload{CallID: callID, Reason: "disconnected"})
}

// ActiveCount reports the number of non-terminal sessions.
func (c *Coordinator) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// timeoutFire runs when the ring timer elapses. The status check under the
// lock is the authoritative guard: if answer, decline or end won the race
// the session is no longer ringing (or no longer indexed) and nothing
// happens here.
func (c *Coordinator) timeoutFire(callID string) {
	c.mu.Lock()
	s, ok := c.sessions[callID]
	if !ok || s.status != StatusRinging {
		c.mu.Unlock()
		return
	}
	c.terminate(s)
	caller, callee := s.caller, s.callee
	c.mu.Unlock()

	slog.Info("call timed out", "callId", callID)
	payload := EndPayload{CallID: callID, Reason: "timeout"}
	c.notify.SendToUser(caller, EventTimeout, payload)
	c.notify.SendToUser(callee, EventTimeout, payload)
}

// lookup resolves the non-terminal session indexed under userID.
// Caller must hold c.mu.
func (c *Coordinator) lookup(userID uuid.UUID) *session {
	callID, ok := c.byUser[userID]
	if !ok {
		return nil
	}
	return c.sessions[callID]
}

// terminate marks s ended and removes it from all three indexes in one
// critical section. Caller must hold c.mu.
func (c *Coordinator) terminate(s *session) {
	s.status = StatusEnded
	s.ringTimer.Stop()
	delete(c.sessions, s.id)
	delete(c.byUser, s.caller)
	delete(c.byUser, s.callee)
}
