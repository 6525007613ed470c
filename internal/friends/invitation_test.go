package friends

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friends/internal/models"
	"github.com/jason-s-yu/friends/internal/notify"
)

func TestInviteNotifiesBothSides(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "let's be friends")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, inv.Status)
	assert.Equal(t, "let's be friends", inv.Message)

	assert.Equal(t, []uuid.UUID{b}, f.notices.recipientsOf(notify.FriendsInvite))
	assert.Equal(t, []uuid.UUID{a}, f.notices.recipientsOf(notify.FriendsInviteSent))
	assert.Equal(t, "alice", f.notices.sent[0].data["from_username"])
	assert.Equal(t, "bob", f.notices.sent[0].data["to_username"])
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	f.befriend(t, a, c)

	_, err := f.svc.Invite(f.ctx, a, a, "")
	assert.ErrorIs(t, err, ErrSelfInvite)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Invite(f.ctx, a, uuid.New(), "")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = f.svc.Invite(f.ctx, c, a, "")
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	_, err = f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	_, err = f.svc.Invite(f.ctx, a, b, "again")
	assert.ErrorIs(t, err, ErrDuplicateInvitation)
	_, err = f.svc.Invite(f.ctx, b, a, "back")
	assert.ErrorIs(t, err, ErrDuplicateInvitation)

	// rejected requests leave nothing behind
	assert.Equal(t, 2, f.notices.count())
	history, err := f.svc.InvitationHistory(f.ctx, a, b)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAcceptFanOut(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	x, y, z := f.user(t, "xavier"), f.user(t, "yolanda"), f.user(t, "zed")
	f.befriend(t, a, x)
	f.befriend(t, y, a)
	f.befriend(t, b, y)
	f.befriend(t, z, b)

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	got, err := f.svc.Accept(f.ctx, inv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	ok, err := f.svc.AreFriends(f.ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []uuid.UUID{a}, f.notices.recipientsOf(notify.FriendsAccept))
	assert.Equal(t, []uuid.UUID{b}, f.notices.recipientsOf(notify.FriendsAcceptSent))

	others := f.notices.recipientsOf(notify.FriendsOtherConnect)
	assert.ElementsMatch(t, []uuid.UUID{x, y, z}, others)
	assert.NotContains(t, others, a)
	assert.NotContains(t, others, b)
}

func TestAcceptTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	_, err = f.svc.Accept(f.ctx, inv.ID, b)
	require.NoError(t, err)
	sent := f.notices.count()

	got, err := f.svc.Accept(f.ctx, inv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	assert.Equal(t, sent, f.notices.count())
	assert.Equal(t, 1, f.friendshipCount(t, a, b))
	assert.Len(t, f.notices.recipientsOf(notify.FriendsAccept), 1)
}

func TestAcceptWhenFriendsByAnotherPath(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	f.befriend(t, b, a)

	got, err := f.svc.Accept(f.ctx, inv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	assert.Equal(t, 1, f.friendshipCount(t, a, b))
	assert.Empty(t, f.notices.recipientsOf(notify.FriendsAccept))
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)

	_, err = f.svc.Accept(f.ctx, inv.ID, a)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Decline(f.ctx, inv.ID, a)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Cancel(f.ctx, inv.ID, b)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Accept(f.ctx, uuid.New(), b)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclineThenAccept(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	got, err := f.svc.Decline(f.ctx, inv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, got.Status)

	_, err = f.svc.Accept(f.ctx, inv.ID, b)
	assert.ErrorIs(t, err, ErrInvitationClosed)

	ok, err := f.svc.AreFriends(f.ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.notices.recipientsOf(notify.FriendsAccept))

	live, err := f.svc.Invitations(f.ctx, b)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	got, err := f.svc.Cancel(f.ctx, inv.ID, a)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, got.Status)

	_, err = f.svc.Cancel(f.ctx, inv.ID, a)
	assert.ErrorIs(t, err, ErrInvitationClosed)
}

func TestNewInvitationArchivesPrevious(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	first, err := f.svc.Invite(f.ctx, a, b, "first")
	require.NoError(t, err)
	_, err = f.svc.Decline(f.ctx, first.ID, b)
	require.NoError(t, err)

	second, err := f.svc.Invite(f.ctx, a, b, "second")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.svc.getInvitation(f.ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	live, err := f.svc.Invitations(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, second.ID, live[0].ID)

	history, err := f.svc.InvitationHistory(f.ctx, b, a)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Message)
	assert.Equal(t, models.StatusDeclined, history[0].Status)
}

func TestDeclineWhenAlreadyFriendsChangesNothing(t *testing.T) {
	logger, hook := test.NewNullLogger()
	f := newFixture(t, WithLogger(logger))
	a, b := f.user(t, "alice"), f.user(t, "bob")

	inv, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	f.befriend(t, a, b)
	hook.Reset()

	got, err := f.svc.Decline(f.ctx, inv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, got.Status)
	assert.Empty(t, hook.AllEntries())
	assert.Equal(t, 1, f.friendshipCount(t, a, b))

	c := f.user(t, "carol")
	other, err := f.svc.Invite(f.ctx, c, b, "")
	require.NoError(t, err)
	hook.Reset()
	_, err = f.svc.Decline(f.ctx, other.ID, b)
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "friendship invitation updated", hook.LastEntry().Message)
}
