package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Friendship is stored as one directed row but means the same thing in
// both directions: at most one row exists per unordered pair of users.
type Friendship struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Added      time.Time `json:"added"`
}

// Other returns the endpoint of the friendship that is not userID.
func (f Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.FromUserID == userID {
		return f.ToUserID
	}
	return f.FromUserID
}

// Involves reports whether userID is one of the two endpoints.
func (f Friendship) Involves(userID uuid.UUID) bool {
	return f.FromUserID == userID || f.ToUserID == userID
}

// PairKey orders two user ids so that (a,b) and (b,a) map to the same key.
func PairKey(a, b uuid.UUID) [2]uuid.UUID {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}
