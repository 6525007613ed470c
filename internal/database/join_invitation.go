package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

const joinInvitationColumns = `j.id, j.from_user_id, j.contact_id, j.message, j.sent, j.status, j.confirmation_key`

func (t *pgTx) CreateJoinInvitation(ctx context.Context, inv *models.JoinInvitation) error {
	if inv.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate join invitation id: %w", err)
		}
		inv.ID = id
	}
	q := `
		INSERT INTO join_invitations (id, from_user_id, contact_id, message, status, confirmation_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING sent
	`
	err := t.q.QueryRow(ctx, q,
		inv.ID, inv.FromUserID, inv.ContactID, inv.Message, string(inv.Status), inv.ConfirmationKey,
	).Scan(&inv.Sent)
	if err != nil {
		return fmt.Errorf("failed to insert join invitation: %w", translate(err))
	}
	return nil
}

func (t *pgTx) GetJoinInvitationByKey(ctx context.Context, key string) (*models.JoinInvitation, error) {
	q := `SELECT ` + joinInvitationColumns + ` FROM join_invitations j WHERE j.confirmation_key=$1`
	rows, err := t.q.Query(ctx, q, key)
	if err != nil {
		return nil, err
	}
	inv, err := pgx.CollectExactlyOneRow(rows, scanJoinInvitation)
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (t *pgTx) ListJoinInvitations(ctx context.Context, fromID uuid.UUID) ([]models.JoinInvitation, error) {
	q := `SELECT ` + joinInvitationColumns + ` FROM join_invitations j WHERE j.from_user_id=$1 ORDER BY j.sent DESC`
	rows, err := t.q.Query(ctx, q, fromID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanJoinInvitation)
}

// JoinInvitationsForEmail returns invitations whose target contact has email.
func (t *pgTx) JoinInvitationsForEmail(ctx context.Context, email string) ([]models.JoinInvitation, error) {
	q := `SELECT ` + joinInvitationColumns + `
		FROM join_invitations j
		JOIN contacts c ON c.id = j.contact_id
		WHERE c.email=$1
		ORDER BY j.sent`
	rows, err := t.q.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanJoinInvitation)
}

func (t *pgTx) SetJoinInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	ct, err := t.q.Exec(ctx, `UPDATE join_invitations SET status=$1 WHERE id=$2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update join invitation status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) ExpireJoinInvitations(ctx context.Context, before time.Time) (int64, error) {
	q := `UPDATE join_invitations SET status=$1 WHERE status=$2 AND sent < $3`
	ct, err := t.q.Exec(ctx, q, string(models.StatusExpired), string(models.StatusSent), before)
	if err != nil {
		return 0, fmt.Errorf("failed to expire join invitations: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanJoinInvitation(row pgx.CollectableRow) (models.JoinInvitation, error) {
	var inv models.JoinInvitation
	var status string
	err := row.Scan(&inv.ID, &inv.FromUserID, &inv.ContactID, &inv.Message, &inv.Sent, &status, &inv.ConfirmationKey)
	inv.Status = models.InvitationStatus(status)
	return inv, err
}
