package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

const contactSelect = `
	SELECT c.id, c.owner_id, c.name, c.email, c.added,
	       COALESCE(array_agg(cu.user_id) FILTER (WHERE cu.user_id IS NOT NULL), '{}')
	FROM contacts c
	LEFT JOIN contact_users cu ON cu.contact_id = c.id
`

func (t *pgTx) GetOrCreateContact(ctx context.Context, ownerID uuid.UUID, email, name string) (*models.Contact, bool, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate contact id: %w", err)
	}
	// DO NOTHING returns no row when the (owner, email) contact exists.
	q := `
		INSERT INTO contacts (id, owner_id, name, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, email) DO NOTHING
	`
	ct, err := t.q.Exec(ctx, q, id, ownerID, name, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert contact: %w", translate(err))
	}
	created := ct.RowsAffected() == 1

	rows, err := t.q.Query(ctx, contactSelect+`WHERE c.owner_id=$1 AND c.email=$2 GROUP BY c.id`, ownerID, email)
	if err != nil {
		return nil, false, err
	}
	contacts, err := scanContacts(rows)
	if err != nil {
		return nil, false, err
	}
	if len(contacts) == 0 {
		return nil, false, ErrNotFound
	}
	return &contacts[0], created, nil
}

func (t *pgTx) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	rows, err := t.q.Query(ctx, contactSelect+`WHERE c.id=$1 GROUP BY c.id`, id)
	if err != nil {
		return nil, err
	}
	contacts, err := scanContacts(rows)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, ErrNotFound
	}
	return &contacts[0], nil
}

func (t *pgTx) ListContacts(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	rows, err := t.q.Query(ctx, contactSelect+`WHERE c.owner_id=$1 GROUP BY c.id ORDER BY c.added, c.email`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

func (t *pgTx) ContactsByEmail(ctx context.Context, email string) ([]models.Contact, error) {
	rows, err := t.q.Query(ctx, contactSelect+`WHERE c.email=$1 GROUP BY c.id ORDER BY c.added`, email)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

func (t *pgTx) AddContactUser(ctx context.Context, contactID, userID uuid.UUID) error {
	q := `
		INSERT INTO contact_users (contact_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := t.q.Exec(ctx, q, contactID, userID); err != nil {
		return fmt.Errorf("failed to attach user to contact: %w", translate(err))
	}
	return nil
}

func scanContacts(rows pgx.Rows) ([]models.Contact, error) {
	defer rows.Close()

	var cs []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Added, &c.Users); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}
