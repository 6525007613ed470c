package friends

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/models"
)

// Friend is one edge of the graph seen from a particular user.
type Friend struct {
	UserID     uuid.UUID         `json:"user_id"`
	Friendship models.Friendship `json:"friendship"`
}

// FriendsOf yields the friends of userID regardless of which side created
// the friendship. Every range over the returned sequence reads storage
// again, so it can be consumed more than once.
func (s *Service) FriendsOf(ctx context.Context, userID uuid.UUID) iter.Seq2[Friend, error] {
	return func(yield func(Friend, error) bool) {
		var rows []models.Friendship
		err := s.store.WithTx(ctx, func(tx database.Tx) error {
			var err error
			rows, err = tx.ListFriendships(ctx, userID)
			return err
		})
		if err != nil {
			yield(Friend{}, fmt.Errorf("list friendships: %w", err))
			return
		}
		for _, f := range rows {
			if !yield(Friend{UserID: f.Other(userID), Friendship: f}, nil) {
				return
			}
		}
	}
}

// Friends collects FriendsOf into a slice.
func (s *Service) Friends(ctx context.Context, userID uuid.UUID) ([]Friend, error) {
	var out []Friend
	for f, err := range s.FriendsOf(ctx, userID) {
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Service) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var ok bool
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		ok, err = areFriends(ctx, tx, a, b)
		return err
	})
	return ok, err
}

func areFriends(ctx context.Context, tx database.Tx, a, b uuid.UUID) (bool, error) {
	_, err := tx.GetFriendship(ctx, a, b)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get friendship: %w", err)
	}
}

// friendIDs lists the ids on the other side of every friendship of userID.
func friendIDs(ctx context.Context, tx database.Tx, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.ListFriendships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.Other(userID))
	}
	return ids, nil
}

// RemoveFriend deletes the friendship between a and b. Invitations between
// the two that are still live are marked Deleted in the same transaction.
func (s *Service) RemoveFriend(ctx context.Context, a, b uuid.UUID) error {
	return s.withPair(ctx, a, b, func() error {
		var superseded int
		err := s.store.WithTx(ctx, func(tx database.Tx) error {
			f, err := tx.GetFriendship(ctx, a, b)
			if err != nil {
				return notFound(err, "friendship")
			}
			if err := tx.DeleteFriendship(ctx, f.ID); err != nil {
				return notFound(err, "friendship")
			}
			for _, pair := range [2][2]uuid.UUID{{a, b}, {b, a}} {
				invs, err := tx.InvitationsBetween(ctx, pair[0], pair[1])
				if err != nil {
					return fmt.Errorf("list invitations: %w", err)
				}
				for _, inv := range invs {
					if !inv.Status.Live() {
						continue
					}
					if err := tx.SetFriendshipInvitationStatus(ctx, inv.ID, models.StatusDeleted); err != nil {
						return fmt.Errorf("supersede invitation %s: %w", inv.ID, err)
					}
					superseded++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"user_id":    a,
			"friend_id":  b,
			"superseded": superseded,
		}).Info("friendship removed")
		return nil
	})
}
