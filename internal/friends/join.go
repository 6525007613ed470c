package friends

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/mail"
	"github.com/jason-s-yu/friends/internal/models"
	"github.com/jason-s-yu/friends/internal/notify"
)

// keyAttempts bounds retries when a generated confirmation key collides.
const keyAttempts = 3

// NormalizeEmail validates addr and returns its lower-cased bare address.
func NormalizeEmail(addr string) (string, error) {
	parsed, err := netmail.ParseAddress(strings.TrimSpace(addr))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, addr)
	}
	return strings.ToLower(parsed.Address), nil
}

// SendJoinInvitation invites someone without an account to join. The
// inviter's contact for the address is created when missing, one email is
// sent, and the invitation ends up Sent, or Failed when the mail could not be
// handed off.
func (s *Service) SendJoinInvitation(ctx context.Context, fromID uuid.UUID, email, message string) (*models.JoinInvitation, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var (
		inv  *models.JoinInvitation
		from *models.User
	)
	for attempt := 0; ; attempt++ {
		err = s.store.WithTx(ctx, func(tx database.Tx) error {
			var err error
			from, err = tx.GetUserByID(ctx, fromID)
			if err != nil {
				return notFound(err, "from user")
			}
			contact, _, err := tx.GetOrCreateContact(ctx, fromID, email, "")
			if err != nil {
				return fmt.Errorf("get or create contact: %w", err)
			}
			key, err := confirmationKey(s.secret, email)
			if err != nil {
				return err
			}
			inv = &models.JoinInvitation{
				FromUserID:      fromID,
				ContactID:       contact.ID,
				Message:         message,
				Status:          models.StatusCreated,
				ConfirmationKey: key,
			}
			return tx.CreateJoinInvitation(ctx, inv)
		})
		if errors.Is(err, database.ErrConflict) && attempt+1 < keyAttempts {
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("create join invitation: %w", err)
	}

	status := models.StatusSent
	if err := s.sendJoinMail(ctx, from, email, inv); err != nil {
		status = models.StatusFailed
		s.log.WithFields(logrus.Fields{
			"join_invitation_id": inv.ID,
			"from_user_id":       fromID,
		}).WithError(err).Warn("failed to send join invitation")
	}

	err = s.store.WithTx(ctx, func(tx database.Tx) error {
		return tx.SetJoinInvitationStatus(ctx, inv.ID, status)
	})
	if err != nil {
		return nil, fmt.Errorf("set join invitation status: %w", err)
	}
	inv.Status = status
	return inv, nil
}

func (s *Service) acceptURL(key string) string {
	return strings.TrimRight(s.site.URL, "/") + "/join/accept?" + url.Values{"key": {key}}.Encode()
}

func (s *Service) sendJoinMail(ctx context.Context, from *models.User, to string, inv *models.JoinInvitation) error {
	subject, body, err := mail.RenderJoinInvite(mail.JoinInviteContext{
		SiteName:     s.site.Name,
		ContactEmail: s.site.ContactEmail,
		User:         from.Username,
		Message:      inv.Message,
		AcceptURL:    s.acceptURL(inv.ConfirmationKey),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{
		From:    s.mailFrom,
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
}

// AcceptJoinInvitation records that newUserID signed up through the
// invitation identified by key and makes them friends with the inviter. When
// the two are already friends the invitation is still marked Accepted but no
// friendship is created and nothing is sent.
func (s *Service) AcceptJoinInvitation(ctx context.Context, key string, newUserID uuid.UUID) (*models.JoinInvitation, error) {
	inv, err := s.openJoinInvitation(ctx, key)
	if err != nil {
		return nil, err
	}
	if inv.FromUserID == newUserID {
		return nil, ErrSelfInvite
	}

	var (
		created    bool
		data       map[string]string
		recipients []uuid.UUID
	)
	accept := func(tx database.Tx) error {
		cur, err := tx.GetJoinInvitationByKey(ctx, key)
		if err != nil {
			return notFound(err, "join invitation")
		}
		if !joinOpen(cur.Status) {
			return ErrInvitationClosed
		}
		inv = cur
		if data, err = usernames(ctx, tx, inv.FromUserID, newUserID); err != nil {
			return err
		}

		if err := tx.SetJoinInvitationStatus(ctx, inv.ID, models.StatusAccepted); err != nil {
			return fmt.Errorf("accept join invitation: %w", err)
		}
		inv.Status = models.StatusAccepted

		friends, err := areFriends(ctx, tx, inv.FromUserID, newUserID)
		if err != nil || friends {
			return err
		}
		f := &models.Friendship{FromUserID: inv.FromUserID, ToUserID: newUserID}
		if err := tx.CreateFriendship(ctx, f); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return errAlreadyConnected
			}
			return fmt.Errorf("create friendship: %w", err)
		}
		created = true
		recipients, err = otherConnect(ctx, tx, inv.FromUserID, newUserID)
		return err
	}

	err = s.withPair(ctx, inv.FromUserID, newUserID, func() error {
		err := s.store.WithTx(ctx, accept)
		if errors.Is(err, errAlreadyConnected) {
			// the aborted transaction lost the status change; the rerun sees
			// the friendship and only marks the invitation
			created = false
			err = s.store.WithTx(ctx, accept)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return inv, nil
	}

	data["join_invitation_id"] = inv.ID.String()
	s.dispatch(ctx, []notice{
		{recipients: []uuid.UUID{inv.FromUserID}, noticeType: notify.JoinAccept, data: data},
		{recipients: recipients, noticeType: notify.FriendsOtherConnect, data: data},
	})
	s.log.WithFields(logrus.Fields{
		"join_invitation_id": inv.ID,
		"new_user_id":        newUserID,
		"fanout":             len(recipients),
	}).Info("join invitation accepted")
	return inv, nil
}

func joinOpen(status models.InvitationStatus) bool {
	switch status {
	case models.StatusAccepted, models.StatusExpired, models.StatusDeleted:
		return false
	}
	return true
}

// openJoinInvitation returns the join invitation for key, or
// ErrInvitationClosed when it can no longer be accepted.
func (s *Service) openJoinInvitation(ctx context.Context, key string) (*models.JoinInvitation, error) {
	var inv *models.JoinInvitation
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		inv, err = tx.GetJoinInvitationByKey(ctx, key)
		if err != nil {
			return notFound(err, "join invitation")
		}
		if !joinOpen(inv.Status) {
			return ErrInvitationClosed
		}
		return nil
	})
	return inv, err
}

// PendingJoin describes an open join invitation to the person holding its key.
type PendingJoin struct {
	ConfirmationKey string    `json:"confirmation_key"`
	FromUserID      uuid.UUID `json:"from_user_id"`
	FromUsername    string    `json:"from_username"`
	Message         string    `json:"message,omitempty"`
}

// LookupJoinInvitation resolves the key from an emailed accept link without
// accepting it.
func (s *Service) LookupJoinInvitation(ctx context.Context, key string) (*PendingJoin, error) {
	inv, err := s.openJoinInvitation(ctx, key)
	if err != nil {
		return nil, err
	}
	var from *models.User
	err = s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		from, err = tx.GetUserByID(ctx, inv.FromUserID)
		return notFound(err, "from user")
	})
	if err != nil {
		return nil, err
	}
	return &PendingJoin{
		ConfirmationKey: inv.ConfirmationKey,
		FromUserID:      inv.FromUserID,
		FromUsername:    from.Username,
		Message:         inv.Message,
	}, nil
}

// EmailVerified reacts to userID proving ownership of email. Open join
// invitations to that address become JoinedIndependently and every contact
// with that address is linked to the account. The account itself is only
// flagged verified when email is its own address.
func (s *Service) EmailVerified(ctx context.Context, userID uuid.UUID, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	var joined, linked int
	err = s.store.WithTx(ctx, func(tx database.Tx) error {
		u, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if strings.EqualFold(u.Email, email) && !u.EmailVerified {
			if err := tx.MarkEmailVerified(ctx, userID); err != nil {
				return notFound(err, "user")
			}
		}

		invs, err := tx.JoinInvitationsForEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("list join invitations: %w", err)
		}
		for _, inv := range invs {
			if inv.Status == models.StatusAccepted || inv.Status == models.StatusJoinedIndependently {
				continue
			}
			if err := tx.SetJoinInvitationStatus(ctx, inv.ID, models.StatusJoinedIndependently); err != nil {
				return fmt.Errorf("mark joined independently: %w", err)
			}
			joined++
		}

		contacts, err := tx.ContactsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("list contacts: %w", err)
		}
		for _, c := range contacts {
			if err := tx.AddContactUser(ctx, c.ID, userID); err != nil {
				return fmt.Errorf("link contact %s: %w", c.ID, err)
			}
			linked++
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"joined":   joined,
		"contacts": linked,
	}).Info("email verified")
	return nil
}

// ExpireJoinInvitations marks Sent join invitations older than olderThan as
// Expired and returns how many changed.
func (s *Service) ExpireJoinInvitations(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	var n int64
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		n, err = tx.ExpireJoinInvitations(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expire join invitations: %w", err)
	}
	if n > 0 {
		s.log.WithField("expired", n).Info("join invitations expired")
	}
	return n, nil
}

// JoinInvitations lists the join invitations sent by fromID.
func (s *Service) JoinInvitations(ctx context.Context, fromID uuid.UUID) ([]models.JoinInvitation, error) {
	var out []models.JoinInvitation
	err := s.store.WithTx(ctx, func(tx database.Tx) error {
		var err error
		out, err = tx.ListJoinInvitations(ctx, fromID)
		return err
	})
	return out, err
}
