package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MarkEmailVerified flags the user's current email as verified.
func (t *pgTx) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	ct, err := t.q.Exec(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
