package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "status:"
	// A status record without a refresh expires after this window; the hub
	// rewrites it on every register/unregister, so an expired key simply
	// means "offline for a long time".
	statusTTL = 7 * 24 * time.Hour
)

// RedisStatusRepository records the online/lastSeen side effect of presence
// changes. It is never consulted to decide reachability; the in-memory
// registry owns that.
type RedisStatusRepository struct {
	client *redis.Client
}

func NewRedisStatusRepository(client *redis.Client) *RedisStatusRepository {
	return &RedisStatusRepository{client: client}
}

func (r *RedisStatusRepository) SetStatus(ctx context.Context, userID uuid.UUID, online bool) error {
	status := models.UserStatus{
		UserID:   userID,
		Online:   online,
		LastSeen: time.Now(),
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	err = r.client.Set(ctx, statusKey(userID), data, statusTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetStatus(ctx context.Context, userID uuid.UUID) (*models.UserStatus, error) {
	data, err := r.client.Get(ctx, statusKey(userID)).Result()
	if err == redis.Nil {
		// No record means the user has never connected (or not recently).
		return &models.UserStatus{UserID: userID, Online: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var status models.UserStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// GetBulkStatus retrieves the status of multiple users in one round trip.
func (r *RedisStatusRepository) GetBulkStatus(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.UserStatus, error) {
	if len(userIDs) == 0 {
		return make(map[uuid.UUID]models.UserStatus), nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = statusKey(id)
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bulk status: %w", err)
	}

	statusMap := make(map[uuid.UUID]models.UserStatus)
	for i, result := range results {
		userID := userIDs[i]

		if result == nil {
			statusMap[userID] = models.UserStatus{UserID: userID, Online: false}
			continue
		}

		data, ok := result.(string)
		if !ok {
			continue
		}

		var status models.UserStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			statusMap[userID] = models.UserStatus{UserID: userID, Online: false}
			continue
		}
		statusMap[userID] = status
	}

	return statusMap, nil
}

func statusKey(userID uuid.UUID) string {
	return statusKeyPrefix + userID.String()
}
