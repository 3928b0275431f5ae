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

// ErrAlreadyMember is returned when adding a user who is already in the group.
var ErrAlreadyMember = errors.New("user is already a member of this group")

type PostgresGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresGroupRepository(pool *pgxpool.Pool) *PostgresGroupRepository {
	return &PostgresGroupRepository{pool: pool}
}

func (r *PostgresGroupRepository) Create(ctx context.Context, group *models.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO groups (name, avatar, description, admin_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		group.Name,
		group.Avatar,
		group.Description,
		group.AdminID,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for _, memberID := range group.MemberIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			group.ID, memberID)
		if err != nil {
			return fmt.Errorf("failed to add group member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	query := `SELECT g.id, g.name, g.avatar, g.description, g.admin_id, g.created_at, g.updated_at,
	                 COALESCE(array_agg(m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
	          FROM groups g
	          LEFT JOIN group_members m ON m.group_id = g.id
	          WHERE g.id = $1
	          GROUP BY g.id`

	var group models.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Avatar,
		&group.Description,
		&group.AdminID,
		&group.CreatedAt,
		&group.UpdatedAt,
		&group.MemberIDs,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (r *PostgresGroupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	query := `SELECT g.id, g.name, g.avatar, g.description, g.admin_id, g.created_at, g.updated_at,
	                 COALESCE(array_agg(m2.user_id) FILTER (WHERE m2.user_id IS NOT NULL), '{}')
	          FROM groups g
	          JOIN group_members m ON m.group_id = g.id AND m.user_id = $1
	          LEFT JOIN group_members m2 ON m2.group_id = g.id
	          GROUP BY g.id
	          ORDER BY g.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var group models.Group
		err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Avatar,
			&group.Description,
			&group.AdminID,
			&group.CreatedAt,
			&group.UpdatedAt,
			&group.MemberIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

func (r *PostgresGroupRepository) Update(ctx context.Context, id uuid.UUID, name, avatar, description *string) (*models.Group, error) {
	query := `UPDATE groups
	          SET name = COALESCE($1, name),
	              avatar = COALESCE($2, avatar),
	              description = COALESCE($3, description),
	              updated_at = NOW()
	          WHERE id = $4`

	result, err := r.pool.Exec(ctx, query, name, avatar, description, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresGroupRepository) AddMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	query := `INSERT INTO group_members (group_id, user_id)
	          VALUES ($1, $2)
	          ON CONFLICT DO NOTHING`

	result, err := r.pool.Exec(ctx, query, groupID, memberID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyMember
	}
	return nil
}

func (r *PostgresGroupRepository) RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, groupID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
