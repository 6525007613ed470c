package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope is one queued notice for one recipient.
type Envelope struct {
	RecipientID uuid.UUID         `json:"recipient_id"`
	NoticeType  string            `json:"notice_type"`
	Data        map[string]string `json:"data,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}

// Queue is a Sender backed by a Redis list. The notifier worker drains it.
type Queue struct {
	rdb  *redis.Client
	name string
	now  func() time.Time
}

var _ Sender = (*Queue)(nil)

func NewQueue(rdb *redis.Client, name string) *Queue {
	return &Queue{rdb: rdb, name: name, now: time.Now}
}

// Send pushes one envelope per recipient in a single round trip.
func (q *Queue) Send(ctx context.Context, recipients []uuid.UUID, noticeType string, data map[string]string) error {
	if len(recipients) == 0 {
		return nil
	}
	ts := q.now().UnixMilli()
	values := make([]any, 0, len(recipients))
	for _, r := range recipients {
		payload, err := json.Marshal(Envelope{RecipientID: r, NoticeType: noticeType, Data: data, Timestamp: ts})
		if err != nil {
			return fmt.Errorf("failed to marshal notice envelope: %w", err)
		}
		values = append(values, payload)
	}
	if err := q.rdb.RPush(ctx, q.name, values...).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next envelope. It returns (nil, nil) when
// the wait timed out.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	// res[0] is the list name and res[1] the payload.
	var env Envelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		return nil, fmt.Errorf("invalid notice envelope: %w", err)
	}
	return &env, nil
}
