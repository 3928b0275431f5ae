package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/hub"
	"github.com/mohammad-sahal/chat-app/internal/models"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
)

// fakeConn records delivered events for assertions.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []hub.Event
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event hub.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return true
}

func (c *fakeConn) received() []hub.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]hub.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) byName(name string) []hub.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []hub.Event
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	mu         sync.Mutex
	messages   map[uuid.UUID]*models.Message
	failCreate bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*models.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return context.DeadlineExceeded
	}
	message.ID = uuid.New()
	message.Timestamp = time.Now()
	message.Delivered = true
	if message.ReadBy == nil {
		message.ReadBy = []uuid.UUID{}
	}
	copied := *message
	r.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) ListPrivate(ctx context.Context, userA, userB uuid.UUID, page, limit int) ([]*models.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) ListGroup(ctx context.Context, groupID uuid.UUID, page, limit int) ([]*models.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) Edit(ctx context.Context, id uuid.UUID, content string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	now := time.Now()
	message.Content = content
	message.Edited = true
	message.EditedAt = &now
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, id, readerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	for _, existing := range message.ReadBy {
		if existing == readerID {
			return false, nil
		}
	}
	message.ReadBy = append(message.ReadBy, readerID)
	return true, nil
}

func (r *fakeMessageRepo) Stats(ctx context.Context, userID uuid.UUID) (*models.MessageStats, error) {
	return &models.MessageStats{}, nil
}

// fakeGroupRepo is an in-memory GroupRepository.
type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*models.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]*models.Group)}
}

func (r *fakeGroupRepo) Create(ctx context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *fakeGroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	return nil, nil
}

func (r *fakeGroupRepo) Update(ctx context.Context, id uuid.UUID, name, avatar, description *string) (*models.Group, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeGroupRepo) AddMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	return nil
}

func (r *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	return nil
}

// fakeStatusRepo records presence writes.
type fakeStatusRepo struct {
	mu     sync.Mutex
	states map[uuid.UUID]bool
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{states: make(map[uuid.UUID]bool)}
}

func (r *fakeStatusRepo) SetStatus(ctx context.Context, userID uuid.UUID, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[userID] = online
	return nil
}

func (r *fakeStatusRepo) GetStatus(ctx context.Context, userID uuid.UUID) (*models.UserStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.UserStatus{UserID: userID, Online: r.states[userID]}, nil
}

func (r *fakeStatusRepo) GetBulkStatus(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.UserStatus, error) {
	result := make(map[uuid.UUID]models.UserStatus)
	for _, id := range userIDs {
		status, _ := r.GetStatus(ctx, id)
		result[id] = *status
	}
	return result, nil
}

func (r *fakeStatusRepo) onlineState(userID uuid.UUID) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[userID]
	return state, ok
}
