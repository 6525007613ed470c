package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWith("hunter2", fastParams)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	_, err := VerifyPassword("x", "plaintext")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyPassword("x", "$argon2id$v=1$m=1,t=1,p=1$AAAA$AAAA")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestParseTokenExpireTime(t *testing.T) {
	for _, s := range []string{"", "0", "never"} {
		d, err := ParseTokenExpireTime(s)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenExpireTime("2h")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)

	_, err = ParseTokenExpireTime("soon")
	assert.Error(t, err)
}

func TestSessionsRoundTrip(t *testing.T) {
	s, err := NewSessions("1h")
	require.NoError(t, err)
	id := uuid.New()

	token, err := s.CreateJWT(id)
	require.NoError(t, err)
	got, err := s.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	other, err := NewSessions("1h")
	require.NoError(t, err)
	_, err = other.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsExpiry(t *testing.T) {
	s, err := NewSessions("1m")
	require.NoError(t, err)
	now := time.Now()
	s.now = func() time.Time { return now }

	token, err := s.CreateJWT(uuid.New())
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = s.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
