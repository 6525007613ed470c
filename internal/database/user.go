package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/friends/internal/models"
)

// CreateUser inserts user. The password must already be hashed.
func (t *pgTx) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	q := `INSERT INTO users (id, email, password, username, email_verified)
	      VALUES ($1, $2, $3, $4, $5)
	      RETURNING created_at`
	err := t.q.QueryRow(ctx, q,
		user.ID, user.Email, user.Password, user.Username, user.EmailVerified,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translate(err))
	}
	return nil
}

const userColumns = `id, email, password, username, email_verified, created_at`

func (t *pgTx) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(t.q.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))))
}

func (t *pgTx) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(t.q.QueryRow(ctx, q, id))
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.EmailVerified, &u.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
