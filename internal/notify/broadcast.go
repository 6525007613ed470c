package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/friends/internal/models"
	"github.com/redis/go-redis/v9"
)

// Broadcaster fans stored notices out to live subscribers over Redis pub/sub,
// one channel per recipient.
type Broadcaster struct {
	rdb    *redis.Client
	prefix string
}

func NewBroadcaster(rdb *redis.Client, prefix string) *Broadcaster {
	return &Broadcaster{rdb: rdb, prefix: prefix}
}

func (b *Broadcaster) channel(userID uuid.UUID) string {
	return b.prefix + userID.String()
}

func (b *Broadcaster) Publish(ctx context.Context, n models.Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel(n.RecipientID), payload).Err()
}

// Subscribe returns a subscription to userID's channel. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	return b.rdb.Subscribe(ctx, b.channel(userID))
}
