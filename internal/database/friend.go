// internal/database/friend.go

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

// CreateFriendship inserts a row. A second row for the same unordered pair is
// rejected by friendships_pair_key and surfaces as ErrConflict.
func (t *pgTx) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	if f.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate friendship id: %w", err)
		}
		f.ID = id
	}
	q := `
		INSERT INTO friendships (id, from_user_id, to_user_id)
		VALUES ($1, $2, $3)
		RETURNING added
	`
	if err := t.q.QueryRow(ctx, q, f.ID, f.FromUserID, f.ToUserID).Scan(&f.Added); err != nil {
		return fmt.Errorf("failed to insert friendship: %w", translate(err))
	}
	return nil
}

// GetFriendship checks both directional forms of the pair.
func (t *pgTx) GetFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	q := `
		SELECT id, from_user_id, to_user_id, added
		FROM friendships
		WHERE (from_user_id=$1 AND to_user_id=$2)
		   OR (from_user_id=$2 AND to_user_id=$1)
	`
	var f models.Friendship
	if err := t.q.QueryRow(ctx, q, a, b).Scan(&f.ID, &f.FromUserID, &f.ToUserID, &f.Added); err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// ListFriendships returns every friendship where userID is either endpoint.
func (t *pgTx) ListFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	q := `
		SELECT id, from_user_id, to_user_id, added
		FROM friendships
		WHERE from_user_id=$1 OR to_user_id=$1
		ORDER BY added, id
	`
	rows, err := t.q.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Friendship, error) {
		var f models.Friendship
		err := row.Scan(&f.ID, &f.FromUserID, &f.ToUserID, &f.Added)
		return f, err
	})
}

// DeleteFriendship hard deletes the friend relation.
func (t *pgTx) DeleteFriendship(ctx context.Context, id uuid.UUID) error {
	ct, err := t.q.Exec(ctx, `DELETE FROM friendships WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
