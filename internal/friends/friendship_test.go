package friends

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friends/internal/models"
)

func TestFriendsOfIsSymmetric(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	f.befriend(t, a, b)
	f.befriend(t, c, a)

	ok, err := f.svc.AreFriends(f.ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.AreFriends(f.ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.AreFriends(f.ctx, b, c)
	require.NoError(t, err)
	assert.False(t, ok)

	friends, err := f.svc.Friends(f.ctx, a)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, fr := range friends {
		ids = append(ids, fr.UserID)
		assert.True(t, fr.Friendship.Involves(a))
	}
	assert.ElementsMatch(t, []uuid.UUID{b, c}, ids)

	fromB, err := f.svc.Friends(f.ctx, b)
	require.NoError(t, err)
	require.Len(t, fromB, 1)
	assert.Equal(t, a, fromB[0].UserID)
}

func TestFriendsOfRestartable(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")
	seq := f.svc.FriendsOf(f.ctx, a)

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 0, count())
	f.befriend(t, a, b)
	assert.Equal(t, 1, count())
	assert.Equal(t, 1, count())
}

func TestRemoveFriend(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	err := f.svc.RemoveFriend(f.ctx, a, b)
	assert.ErrorIs(t, err, ErrNotFound)

	inv, err := f.svc.Invite(f.ctx, a, b, "hi")
	require.NoError(t, err)
	_, err = f.svc.Accept(f.ctx, inv.ID, b)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveFriend(f.ctx, b, a))

	ok, err := f.svc.AreFriends(f.ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := f.svc.getInvitation(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, got.Status)

	live, err := f.svc.Invitations(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, live)

	// they can start over
	_, err = f.svc.Invite(f.ctx, b, a, "again?")
	assert.NoError(t, err)
}

func TestRemoveFriendKeepsDeclined(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "alice"), f.user(t, "bob")

	declined, err := f.svc.Invite(f.ctx, a, b, "")
	require.NoError(t, err)
	_, err = f.svc.Decline(f.ctx, declined.ID, b)
	require.NoError(t, err)

	accepted, err := f.svc.Invite(f.ctx, b, a, "")
	require.NoError(t, err)
	_, err = f.svc.Accept(f.ctx, accepted.ID, a)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveFriend(f.ctx, a, b))

	got, err := f.svc.getInvitation(f.ctx, declined.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, got.Status)
	got, err = f.svc.getInvitation(f.ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, got.Status)
}

func TestOtherConnectRecipients(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	x, y, z := uuid.New(), uuid.New(), uuid.New()

	got := OtherConnectRecipients([]uuid.UUID{x, y, b}, []uuid.UUID{y, z, a}, a, b)
	assert.Equal(t, []uuid.UUID{x, y, z}, got)

	assert.Empty(t, OtherConnectRecipients(nil, nil, a, b))
	assert.Empty(t, OtherConnectRecipients([]uuid.UUID{b}, []uuid.UUID{a}, a, b))
}
