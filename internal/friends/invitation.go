package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/models"
	"github.com/jason-s-yu/friends/internal/notify"
)

// errAlreadyConnected aborts an accept transaction when the friendship
// appeared between the guard and the insert. Callers treat it as a no-op.
var errAlreadyConnected = errors.New("already connected")

// Invite sends a friendship invitation from one user to another. Any earlier
// invitation for the same (from, to) pair is moved to history.
func (s *Service) Invite(ctx context.Context, fromID, toID uuid.UUID, message string) (*models.FriendshipInvitation, error) {
	if fromID == toID {
		return nil, ErrSelfInvite
	}

	var (
		inv  *models.FriendshipInvitation
		data map[string]string
	)
	err := s.withPair(ctx, fromID, toID, func() error {
		return s.store.WithTx(ctx, func(tx database.Tx) error {
			var err error
			data, err = usernames(ctx, tx, fromID, toID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUnknownUser
				}
				return err
			}

			friends, err := areFriends(ctx, tx, fromID, toID)
			if err != nil {
				return err
			}
			if friends {
				return ErrAlreadyFriends
			}

			for _, pair := range [2][2]uuid.UUID{{fromID, toID}, {toID, fromID}} {
				pending, err := tx.InvitationsBetween(ctx, pair[0], pair[1])
				if err != nil {
					return fmt.Errorf("list invitations: %w", err)
				}
				for _, p := range pending {
					if p.Status == models.StatusSent {
						return ErrDuplicateInvitation
					}
				}
			}

			inv = &models.FriendshipInvitation{
				FromUserID: fromID,
				ToUserID:   toID,
				Message:    message,
				Status:     models.StatusSent,
			}
			if err := tx.CreateFriendshipInvitation(ctx, inv); err != nil {
				return fmt.Errorf("create invitation: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	data["invitation_id"] = inv.ID.String()
	s.dispatch(ctx, []notice{
		{recipients: []uuid.UUID{toID}, noticeType: notify.FriendsInvite, data: data},
		{recipients: []uuid.UUID{fromID}, noticeType: notify.FriendsInviteSent, data: data},
	})
	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"from_user_id":  fromID,
		"to_user_id":    toID,
	}).Info("friendship invitation sent")
	return inv, nil
}

func (s *Service) getInvitation(ctx context.Context, id uuid.UUID) (*models.FriendshipInvitation, error) {
	var inv *models.FriendshipInvitation
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		inv, err = tx.GetFriendshipInvitation(ctx, id)
		return notFound(err, "invitation")
	})
	return inv, err
}

// Accept makes the recipient and the sender friends. Accepting when the two
// are already friends, by this invitation or any other path, changes nothing
// and sends nothing.
func (s *Service) Accept(ctx context.Context, invitationID, actorID uuid.UUID) (*models.FriendshipInvitation, error) {
	inv, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.ToUserID != actorID {
		return nil, ErrForbidden
	}

	var (
		changed    bool
		data       map[string]string
		recipients []uuid.UUID
	)
	err = s.withPair(ctx, inv.FromUserID, inv.ToUserID, func() error {
		return s.store.WithTx(ctx, func(tx database.Tx) error {
			cur, err := tx.GetFriendshipInvitation(ctx, invitationID)
			if err != nil {
				return notFound(err, "invitation")
			}
			inv = cur

			friends, err := areFriends(ctx, tx, inv.ToUserID, inv.FromUserID)
			if err != nil {
				return err
			}
			if friends {
				return nil
			}
			if inv.Status != models.StatusSent {
				return ErrInvitationClosed
			}

			f := &models.Friendship{FromUserID: inv.FromUserID, ToUserID: inv.ToUserID}
			if err := tx.CreateFriendship(ctx, f); err != nil {
				if errors.Is(err, database.ErrConflict) {
					return errAlreadyConnected
				}
				return fmt.Errorf("create friendship: %w", err)
			}
			if err := tx.SetFriendshipInvitationStatus(ctx, inv.ID, models.StatusAccepted); err != nil {
				return fmt.Errorf("accept invitation: %w", err)
			}
			inv.Status = models.StatusAccepted

			if data, err = usernames(ctx, tx, inv.FromUserID, inv.ToUserID); err != nil {
				return err
			}
			if recipients, err = otherConnect(ctx, tx, inv.FromUserID, inv.ToUserID); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if errors.Is(err, errAlreadyConnected) {
		return inv, nil
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return inv, nil
	}

	data["invitation_id"] = inv.ID.String()
	s.dispatch(ctx, []notice{
		{recipients: []uuid.UUID{inv.FromUserID}, noticeType: notify.FriendsAccept, data: data},
		{recipients: []uuid.UUID{inv.ToUserID}, noticeType: notify.FriendsAcceptSent, data: data},
		{recipients: recipients, noticeType: notify.FriendsOtherConnect, data: data},
	})
	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"fanout":        len(recipients),
	}).Info("friendship invitation accepted")
	return inv, nil
}

// otherConnect lists the friends of a and b that should hear about the new
// friendship. The new edge itself is excluded by dropping a and b.
func otherConnect(ctx context.Context, tx database.Tx, a, b uuid.UUID) ([]uuid.UUID, error) {
	fa, err := friendIDs(ctx, tx, a)
	if err != nil {
		return nil, err
	}
	fb, err := friendIDs(ctx, tx, b)
	if err != nil {
		return nil, err
	}
	return OtherConnectRecipients(fa, fb, a, b), nil
}

// Decline closes the invitation without creating a friendship. Like Accept,
// it does nothing when the two users are already friends.
func (s *Service) Decline(ctx context.Context, invitationID, actorID uuid.UUID) (*models.FriendshipInvitation, error) {
	return s.transition(ctx, invitationID, func(tx database.Tx, inv *models.FriendshipInvitation) (models.InvitationStatus, error) {
		if inv.ToUserID != actorID {
			return "", ErrForbidden
		}
		friends, err := areFriends(ctx, tx, inv.ToUserID, inv.FromUserID)
		if err != nil || friends {
			return "", err
		}
		return models.StatusDeclined, nil
	})
}

// Cancel lets the sender withdraw an invitation that is still pending.
func (s *Service) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) (*models.FriendshipInvitation, error) {
	return s.transition(ctx, invitationID, func(_ database.Tx, inv *models.FriendshipInvitation) (models.InvitationStatus, error) {
		if inv.FromUserID != actorID {
			return "", ErrForbidden
		}
		return models.StatusDeleted, nil
	})
}

// transition moves a Sent invitation to the status returned by decide. An
// empty status leaves the invitation untouched.
func (s *Service) transition(
	ctx context.Context,
	invitationID uuid.UUID,
	decide func(tx database.Tx, inv *models.FriendshipInvitation) (models.InvitationStatus, error),
) (*models.FriendshipInvitation, error) {
	inv, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	var changed bool
	err = s.withPair(ctx, inv.FromUserID, inv.ToUserID, func() error {
		return s.store.WithTx(ctx, func(tx database.Tx) error {
			cur, err := tx.GetFriendshipInvitation(ctx, invitationID)
			if err != nil {
				return notFound(err, "invitation")
			}
			inv = cur
			next, err := decide(tx, inv)
			if err != nil || next == "" {
				return err
			}
			if inv.Status != models.StatusSent {
				return ErrInvitationClosed
			}
			if err := tx.SetFriendshipInvitationStatus(ctx, inv.ID, next); err != nil {
				return fmt.Errorf("set invitation status: %w", err)
			}
			inv.Status = next
			changed = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return inv, nil
	}
	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"status":        inv.Status.String(),
	}).Info("friendship invitation updated")
	return inv, nil
}

// Invitations returns the live invitations sent to or by userID, newest first.
func (s *Service) Invitations(ctx context.Context, userID uuid.UUID) ([]models.FriendshipInvitation, error) {
	var out []models.FriendshipInvitation
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		all, err := tx.ListFriendshipInvitations(ctx, userID)
		if err != nil {
			return fmt.Errorf("list invitations: %w", err)
		}
		for _, inv := range all {
			if inv.Status.Live() {
				out = append(out, inv)
			}
		}
		return nil
	})
	return out, err
}

// InvitationHistory returns the archived invitations exchanged between a and
// b in either direction, newest first.
func (s *Service) InvitationHistory(ctx context.Context, a, b uuid.UUID) ([]models.FriendshipInvitationHistory, error) {
	var out []models.FriendshipInvitationHistory
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		out, err = tx.ListInvitationHistory(ctx, a, b)
		return err
	})
	return out, err
}
