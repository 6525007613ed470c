package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

var _ NoticeStore = (*Postgres)(nil)

func (p *Postgres) InsertNotice(ctx context.Context, n *models.Notice) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate notice id: %w", err)
		}
		n.ID = id
	}
	var payload any
	if len(n.Payload) > 0 {
		payload = string(n.Payload)
	}
	q := `
		INSERT INTO notices (id, recipient_id, notice_type, title, body, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := p.pool.QueryRow(ctx, q, n.ID, n.RecipientID, n.NoticeType, n.Title, n.Body, payload).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notice: %w", translate(err))
	}
	return nil
}

func (p *Postgres) ListNotices(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notice, error) {
	q := `
		SELECT id, recipient_id, notice_type, title, body, COALESCE(payload::text, ''), created_at, read_at
		FROM notices
		WHERE recipient_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, q, recipientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Notice, error) {
		var n models.Notice
		var payload string
		err := row.Scan(&n.ID, &n.RecipientID, &n.NoticeType, &n.Title, &n.Body, &payload, &n.CreatedAt, &n.ReadAt)
		if payload != "" {
			n.Payload = []byte(payload)
		}
		return n, err
	})
}

func (p *Postgres) MarkNoticeRead(ctx context.Context, recipientID, noticeID uuid.UUID, at time.Time) error {
	q := `UPDATE notices SET read_at=COALESCE(read_at, $3) WHERE id=$1 AND recipient_id=$2`
	ct, err := p.pool.Exec(ctx, q, noticeID, recipientID, at)
	if err != nil {
		return fmt.Errorf("failed to mark notice read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
