package friends

import (
	"context"

	"github.com/google/uuid"
)

// Locker serialises operations on one unordered pair of users across
// processes. Implementations must treat (a, b) and (b, a) as the same key.
type Locker interface {
	LockPair(ctx context.Context, a, b uuid.UUID) (unlock func(), err error)
}

type nopLocker struct{}

func (nopLocker) LockPair(context.Context, uuid.UUID, uuid.UUID) (func(), error) {
	return func() {}, nil
}
