package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/models"
)

// ErrLockBusy is returned when the pair stays locked for longer than the
// lock TTL.
var ErrLockBusy = errors.New("pair lock busy")

// release deletes the key only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PairLock is a SET NX PX lock keyed by an unordered pair of user ids.
type PairLock struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	poll   time.Duration
	log    logrus.FieldLogger
}

func NewPairLock(rdb redis.UniversalClient, ttl time.Duration, log logrus.FieldLogger) *PairLock {
	return &PairLock{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "friends:pairlock:",
		poll:   25 * time.Millisecond,
		log:    log,
	}
}

func (l *PairLock) key(a, b uuid.UUID) string {
	k := models.PairKey(a, b)
	return l.prefix + k[0].String() + ":" + k[1].String()
}

// LockPair blocks until the pair is free, the context ends, or one TTL has
// passed. The returned func releases the lock.
func (l *PairLock) LockPair(ctx context.Context, a, b uuid.UUID) (func(), error) {
	key := l.key(a, b)
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}

	return func() {
		// the caller's context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := release.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.WithField("key", key).WithError(err).Warn("failed to release pair lock")
		}
	}, nil
}
