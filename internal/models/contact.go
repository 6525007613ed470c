package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is an address-book entry owned by a user. The person behind it may
// or may not have an account; Users lists the verified accounts whose email
// matches.
type Contact struct {
	ID      uuid.UUID   `json:"id"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Name    string      `json:"name,omitempty"`
	Email   string      `json:"email"`
	Added   time.Time   `json:"added"`
	Users   []uuid.UUID `json:"users,omitempty"`
}
