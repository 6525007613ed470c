package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

const invitationColumns = `id, from_user_id, to_user_id, message, sent, status`

// CreateFriendshipInvitation moves the previous invitation(s) for the ordered
// pair into friendship_invitation_history before inserting inv, so the pair
// never holds more than one row.
func (t *pgTx) CreateFriendshipInvitation(ctx context.Context, inv *models.FriendshipInvitation) error {
	if inv.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate invitation id: %w", err)
		}
		inv.ID = id
	}

	archive := `
		WITH moved AS (
			DELETE FROM friendship_invitations
			WHERE from_user_id=$1 AND to_user_id=$2
			RETURNING from_user_id, to_user_id, message, sent, status
		)
		INSERT INTO friendship_invitation_history (id, from_user_id, to_user_id, message, sent, status)
		SELECT gen_random_uuid(), from_user_id, to_user_id, message, sent, status FROM moved
	`
	if _, err := t.q.Exec(ctx, archive, inv.FromUserID, inv.ToUserID); err != nil {
		return fmt.Errorf("failed to archive previous invitations: %w", err)
	}

	q := `
		INSERT INTO friendship_invitations (id, from_user_id, to_user_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sent
	`
	err := t.q.QueryRow(ctx, q, inv.ID, inv.FromUserID, inv.ToUserID, inv.Message, string(inv.Status)).Scan(&inv.Sent)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", translate(err))
	}
	return nil
}

func (t *pgTx) GetFriendshipInvitation(ctx context.Context, id uuid.UUID) (*models.FriendshipInvitation, error) {
	q := `SELECT ` + invitationColumns + ` FROM friendship_invitations WHERE id=$1`
	rows, err := t.q.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	inv, err := pgx.CollectExactlyOneRow(rows, scanInvitation)
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (t *pgTx) InvitationsBetween(ctx context.Context, fromID, toID uuid.UUID) ([]models.FriendshipInvitation, error) {
	q := `SELECT ` + invitationColumns + ` FROM friendship_invitations WHERE from_user_id=$1 AND to_user_id=$2`
	rows, err := t.q.Query(ctx, q, fromID, toID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanInvitation)
}

func (t *pgTx) ListFriendshipInvitations(ctx context.Context, userID uuid.UUID) ([]models.FriendshipInvitation, error) {
	q := `SELECT ` + invitationColumns + `
		FROM friendship_invitations
		WHERE from_user_id=$1 OR to_user_id=$1
		ORDER BY sent DESC, id`
	rows, err := t.q.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanInvitation)
}

func (t *pgTx) SetFriendshipInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	ct, err := t.q.Exec(ctx, `UPDATE friendship_invitations SET status=$1 WHERE id=$2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInvitationHistory returns archived invitations between a and b in both
// directions, newest first.
func (t *pgTx) ListInvitationHistory(ctx context.Context, a, b uuid.UUID) ([]models.FriendshipInvitationHistory, error) {
	q := `
		SELECT id, from_user_id, to_user_id, message, sent, status, archived_at
		FROM friendship_invitation_history
		WHERE (from_user_id=$1 AND to_user_id=$2)
		   OR (from_user_id=$2 AND to_user_id=$1)
		ORDER BY archived_at DESC, sent DESC
	`
	rows, err := t.q.Query(ctx, q, a, b)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.FriendshipInvitationHistory, error) {
		var h models.FriendshipInvitationHistory
		var status string
		err := row.Scan(&h.ID, &h.FromUserID, &h.ToUserID, &h.Message, &h.Sent, &status, &h.ArchivedAt)
		h.Status = models.InvitationStatus(status)
		return h, err
	})
}

func scanInvitation(row pgx.CollectableRow) (models.FriendshipInvitation, error) {
	var inv models.FriendshipInvitation
	var status string
	err := row.Scan(&inv.ID, &inv.FromUserID, &inv.ToUserID, &inv.Message, &inv.Sent, &status)
	inv.Status = models.InvitationStatus(status)
	return inv, err
}
