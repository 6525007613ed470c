package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notice is a rendered notification stored for one recipient.
type Notice struct {
	ID          uuid.UUID       `json:"id"`
	RecipientID uuid.UUID       `json:"recipient_id"`
	NoticeType  string          `json:"notice_type"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
}
