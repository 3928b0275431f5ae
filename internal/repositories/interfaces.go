package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, exclude uuid.UUID) ([]*models.User, error)
	Search(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, avatar *string) (*models.User, error)
}

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)
	Update(ctx context.Context, id uuid.UUID, name, avatar, description *string) (*models.Group, error)
	AddMember(ctx context.Context, groupID, memberID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListPrivate(ctx context.Context, userA, userB uuid.UUID, page, limit int) ([]*models.Message, error)
	ListGroup(ctx context.Context, groupID uuid.UUID, page, limit int) ([]*models.Message, error)
	Edit(ctx context.Context, id uuid.UUID, content string) (*models.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkRead adds readerID to the message's read set and reports whether
	// the entry was newly added (false when already read).
	MarkRead(ctx context.Context, id, readerID uuid.UUID) (bool, error)
	Stats(ctx context.Context, userID uuid.UUID) (*models.MessageStats, error)
}

type StatusRepository interface {
	SetStatus(ctx context.Context, userID uuid.UUID, online bool) error
	GetStatus(ctx context.Context, userID uuid.UUID) (*models.UserStatus, error)
	GetBulkStatus(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.UserStatus, error)
}
