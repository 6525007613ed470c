package friends

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friends/internal/models"
	"github.com/jason-s-yu/friends/internal/notify"
)

func TestSendJoinInvitation(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")

	inv, err := f.svc.SendJoinInvitation(f.ctx, a, "B@X.com", "hi")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, inv.Status)
	assert.Len(t, inv.ConfirmationKey, 40)
	_, err = hex.DecodeString(inv.ConfirmationKey)
	assert.NoError(t, err)

	contacts, err := f.svc.Contacts(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "b@x.com", contacts[0].Email)
	assert.Equal(t, contacts[0].ID, inv.ContactID)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, []string{"b@x.com"}, msg.To)
	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Equal(t, "alice has invited you to join Friends", msg.Subject)
	assert.Contains(t, msg.Body, "hi")
	assert.Contains(t, msg.Body, "https://friends.example.com/join/accept?key="+inv.ConfirmationKey)

	again, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, inv.ContactID, again.ContactID)
	assert.NotEqual(t, inv.ConfirmationKey, again.ConfirmationKey)

	contacts, err = f.svc.Contacts(f.ctx, a)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestSendJoinInvitationMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errSMTPDown
	a := f.user(t, "alice")

	inv, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, inv.Status)

	list, err := f.svc.JoinInvitations(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusFailed, list[0].Status)
}

func TestSendJoinInvitationValidation(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")

	_, err := f.svc.SendJoinInvitation(f.ctx, a, "not an address", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.SendJoinInvitation(f.ctx, uuid.New(), "b@x.com", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.mailer.sent)
}

func TestAcceptJoinInvitation(t *testing.T) {
	f := newFixture(t)
	a, x := f.user(t, "alice"), f.user(t, "xavier")
	f.befriend(t, a, x)

	inv, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	b := f.user(t, "bob")

	got, err := f.svc.AcceptJoinInvitation(f.ctx, inv.ConfirmationKey, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	ok, err := f.svc.AreFriends(f.ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []uuid.UUID{a}, f.notices.recipientsOf(notify.JoinAccept))
	assert.Equal(t, []uuid.UUID{x}, f.notices.recipientsOf(notify.FriendsOtherConnect))

	_, err = f.svc.AcceptJoinInvitation(f.ctx, inv.ConfirmationKey, b)
	assert.ErrorIs(t, err, ErrInvitationClosed)
	_, err = f.svc.AcceptJoinInvitation(f.ctx, strings.Repeat("0", 40), b)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptJoinInvitationAlreadyFriends(t *testing.T) {
	locks := &recordingLocker{}
	f := newFixture(t, WithLocker(locks))
	a := f.user(t, "alice")
	inv, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	b := f.user(t, "bob")
	f.befriend(t, a, b)

	got, err := f.svc.AcceptJoinInvitation(f.ctx, inv.ConfirmationKey, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, 1, f.friendshipCount(t, a, b))
	assert.Zero(t, f.notices.count())
	assert.Equal(t, [][2]uuid.UUID{{a, b}}, locks.pairs)

	list, err := f.svc.JoinInvitations(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusAccepted, list[0].Status)
}

func TestAcceptJoinInvitationLosesInsertRace(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")
	inv, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	b := f.user(t, "bob")

	racing := &racingStore{Store: f.store}
	svc := New(racing, WithNotifier(f.notices), WithLogger(f.svc.log))

	got, err := svc.AcceptJoinInvitation(f.ctx, inv.ConfirmationKey, b)
	require.NoError(t, err)
	assert.True(t, racing.raced)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, 1, f.friendshipCount(t, a, b))
	assert.Zero(t, f.notices.count())

	list, err := f.svc.JoinInvitations(f.ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusAccepted, list[0].Status)
}

func TestEmailVerified(t *testing.T) {
	f := newFixture(t)
	a, c := f.user(t, "alice"), f.user(t, "carol")

	open, err := f.svc.SendJoinInvitation(f.ctx, a, "b@x.com", "")
	require.NoError(t, err)
	accepted, err := f.svc.SendJoinInvitation(f.ctx, c, "b@x.com", "")
	require.NoError(t, err)
	_, _, err = f.svc.AddContact(f.ctx, c, "other@x.com", "Other")
	require.NoError(t, err)

	b := f.user(t, "bob")
	_, err = f.svc.AcceptJoinInvitation(f.ctx, accepted.ConfirmationKey, b)
	require.NoError(t, err)

	require.NoError(t, f.svc.EmailVerified(f.ctx, b, "b@x.com"))

	statuses := map[uuid.UUID]models.InvitationStatus{}
	for _, from := range []uuid.UUID{a, c} {
		list, err := f.svc.JoinInvitations(f.ctx, from)
		require.NoError(t, err)
		for _, inv := range list {
			statuses[inv.ID] = inv.Status
		}
	}
	assert.Equal(t, models.StatusJoinedIndependently, statuses[open.ID])
	assert.Equal(t, models.StatusAccepted, statuses[accepted.ID])

	for _, owner := range []uuid.UUID{a, c} {
		contacts, err := f.svc.Contacts(f.ctx, owner)
		require.NoError(t, err)
		for _, contact := range contacts {
			if contact.Email == "b@x.com" {
				assert.Equal(t, []uuid.UUID{b}, contact.Users)
			} else {
				assert.Empty(t, contact.Users)
			}
		}
	}

	// b@x.com is not bob's account address
	assert.False(t, f.verified(t, b))
}

func TestEmailVerifiedOwnAddress(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")

	require.NoError(t, f.svc.EmailVerified(f.ctx, a, "someone-else@example.com"))
	assert.False(t, f.verified(t, a))

	require.NoError(t, f.svc.EmailVerified(f.ctx, a, "Alice@Example.com"))
	assert.True(t, f.verified(t, a))

	assert.ErrorIs(t, f.svc.EmailVerified(f.ctx, uuid.New(), "nobody@example.com"), ErrNotFound)
}

func TestExpireJoinInvitations(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return now }))
	f.store.WithClock(func() time.Time { return now.Add(-48 * time.Hour) })
	a := f.user(t, "alice")

	old, err := f.svc.SendJoinInvitation(f.ctx, a, "old@x.com", "")
	require.NoError(t, err)
	f.store.WithClock(func() time.Time { return now })
	fresh, err := f.svc.SendJoinInvitation(f.ctx, a, "fresh@x.com", "")
	require.NoError(t, err)

	n, err := f.svc.ExpireJoinInvitations(f.ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := f.svc.JoinInvitations(f.ctx, a)
	require.NoError(t, err)
	for _, inv := range list {
		switch inv.ID {
		case old.ID:
			assert.Equal(t, models.StatusExpired, inv.Status)
		case fresh.ID:
			assert.Equal(t, models.StatusSent, inv.Status)
		}
	}

	_, err = f.svc.AcceptJoinInvitation(f.ctx, old.ConfirmationKey, f.user(t, "late"))
	assert.ErrorIs(t, err, ErrInvitationClosed)
}

func TestImportVCards(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "alice")
	_, _, err := f.svc.AddContact(f.ctx, a, "bob@x.com", "Bob")
	require.NoError(t, err)

	cards := strings.Join([]string{
		"BEGIN:VCARD", "VERSION:3.0", "FN:Bob", "EMAIL:bob@x.com", "END:VCARD",
		"BEGIN:VCARD", "VERSION:3.0", "FN:Carol", "EMAIL:carol@x.com", "END:VCARD",
		"BEGIN:VCARD", "VERSION:3.0", "FN:No Mail", "END:VCARD",
		"BEGIN:VCARD", "VERSION:3.0", "EMAIL:noname@x.com", "END:VCARD",
	}, "\r\n") + "\r\n"

	imported, total, err := f.svc.ImportVCards(f.ctx, a, bytes.NewBufferString(cards))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 4, total)

	contacts, err := f.svc.Contacts(f.ctx, a)
	require.NoError(t, err)
	emails := []string{}
	for _, c := range contacts {
		emails = append(emails, c.Email)
	}
	assert.ElementsMatch(t, []string{"bob@x.com", "carol@x.com"}, emails)
}

func TestConfirmationKeyUnique(t *testing.T) {
	secret := hashSecret("s")
	k1, err := confirmationKey(secret, "b@x.com")
	require.NoError(t, err)
	k2, err := confirmationKey(secret, "b@x.com")
	require.NoError(t, err)
	assert.Len(t, k1, 40)
	assert.NotEqual(t, k1, k2)

	k3, err := confirmationKey(nil, "b@x.com")
	require.NoError(t, err)
	assert.Len(t, k3, 40)
}
