package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammad-sahal/chat-app/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, group_id, content, type, timestamp, read_by, delivered, edited, edited_at`

type PostgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `INSERT INTO messages (sender_id, receiver_id, group_id, content, type)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, timestamp, delivered`

	err := r.pool.QueryRow(ctx, query,
		message.SenderID,
		message.ReceiverID,
		message.GroupID,
		message.Content,
		message.Type,
	).Scan(&message.ID, &message.Timestamp, &message.Delivered)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if message.ReadBy == nil {
		message.ReadBy = []uuid.UUID{}
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var message models.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.GroupID,
		&message.Content,
		&message.Type,
		&message.Timestamp,
		&message.ReadBy,
		&message.Delivered,
		&message.Edited,
		&message.EditedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

// ListPrivate returns one page of the conversation between two users,
// oldest first within the page. Pages count back from the newest message.
func (r *PostgresMessageRepository) ListPrivate(ctx context.Context, userA, userB uuid.UUID, page, limit int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
	              SELECT ` + messageColumns + ` FROM messages
	              WHERE (sender_id = $1 AND receiver_id = $2)
	                 OR (sender_id = $2 AND receiver_id = $1)
	              ORDER BY timestamp DESC
	              LIMIT $3 OFFSET $4
	          ) page
	          ORDER BY timestamp ASC`

	rows, err := r.pool.Query(ctx, query, userA, userB, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query private messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PostgresMessageRepository) ListGroup(ctx context.Context, groupID uuid.UUID, page, limit int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
	              SELECT ` + messageColumns + ` FROM messages
	              WHERE group_id = $1
	              ORDER BY timestamp DESC
	              LIMIT $2 OFFSET $3
	          ) page
	          ORDER BY timestamp ASC`

	rows, err := r.pool.Query(ctx, query, groupID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query group messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PostgresMessageRepository) Edit(ctx context.Context, id uuid.UUID, content string) (*models.Message, error) {
	query := `UPDATE messages
	          SET content = $1, edited = TRUE, edited_at = NOW()
	          WHERE id = $2
	          RETURNING ` + messageColumns

	var message models.Message
	err := r.pool.QueryRow(ctx, query, content, id).Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.GroupID,
		&message.Content,
		&message.Type,
		&message.Timestamp,
		&message.ReadBy,
		&message.Delivered,
		&message.Edited,
		&message.EditedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	return &message, nil
}

func (r *PostgresMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead adds readerID to the read set unless it is the sender or already
// present, mirroring an add-to-set update. The returned bool reports whether
// a new entry was written.
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, id, readerID uuid.UUID) (bool, error) {
	query := `UPDATE messages
	          SET read_by = array_append(read_by, $2)
	          WHERE id = $1 AND sender_id <> $2 AND NOT ($2 = ANY(read_by))`

	result, err := r.pool.Exec(ctx, query, id, readerID)
	if err != nil {
		return false, fmt.Errorf("failed to mark message read: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresMessageRepository) Stats(ctx context.Context, userID uuid.UUID) (*models.MessageStats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE sender_id = $1),
	                 COUNT(*) FILTER (WHERE sender_id <> $1),
	                 COUNT(*) FILTER (WHERE sender_id <> $1 AND NOT ($1 = ANY(read_by)))
	          FROM messages
	          WHERE sender_id = $1 OR receiver_id = $1
	             OR group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)`

	var stats models.MessageStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.TotalMessages,
		&stats.SentMessages,
		&stats.ReceivedMessages,
		&stats.UnreadMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get message stats: %w", err)
	}
	return &stats, nil
}

func scanMessages(rows pgx.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		var message models.Message
		err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.ReceiverID,
			&message.GroupID,
			&message.Content,
			&message.Type,
			&message.Timestamp,
			&message.ReadBy,
			&message.Delivered,
			&message.Edited,
			&message.EditedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}
