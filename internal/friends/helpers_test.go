package friends

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/friends/internal/config"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/database/memory"
	"github.com/jason-s-yu/friends/internal/mail"
	"github.com/jason-s-yu/friends/internal/models"
)

type sentNotice struct {
	recipients []uuid.UUID
	noticeType string
	data       map[string]string
}

// recordingNotifier keeps every Send call.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (r *recordingNotifier) Send(_ context.Context, recipients []uuid.UUID, noticeType string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotice{recipients: recipients, noticeType: noticeType, data: data})
	return nil
}

// recipientsOf flattens the recipients of every notice of the given type.
func (r *recordingNotifier) recipientsOf(noticeType string) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, n := range r.sent {
		if n.noticeType == noticeType {
			out = append(out, n.recipients...)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	store   *memory.Store
	svc     *Service
	notices *recordingNotifier
	mailer  *recordingMailer
	ctx     context.Context
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		store:   memory.New(),
		notices: &recordingNotifier{},
		mailer:  &recordingMailer{},
		ctx:     context.Background(),
	}
	base := []Option{
		WithNotifier(f.notices),
		WithMailer(f.mailer, "noreply@example.com"),
		WithLogger(logger),
		WithSite(config.SiteConfig{Name: "Friends", URL: "https://friends.example.com/", ContactEmail: "help@example.com"}),
		WithConfirmationSecret("test-secret"),
	}
	f.svc = New(f.store, append(base, opts...)...)
	return f
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	err := f.store.WithTx(f.ctx, func(tx database.Tx) error {
		return tx.CreateUser(f.ctx, u)
	})
	require.NoError(t, err)
	return u.ID
}

// befriend connects a and b directly in storage, bypassing invitations.
func (f *fixture) befriend(t *testing.T, a, b uuid.UUID) {
	t.Helper()
	err := f.store.WithTx(f.ctx, func(tx database.Tx) error {
		return tx.CreateFriendship(f.ctx, &models.Friendship{FromUserID: a, ToUserID: b})
	})
	require.NoError(t, err)
}

func (f *fixture) friendshipCount(t *testing.T, a, b uuid.UUID) int {
	t.Helper()
	n := 0
	for fr, err := range f.svc.FriendsOf(f.ctx, a) {
		require.NoError(t, err)
		if fr.UserID == b {
			n++
		}
	}
	return n
}

func (f *fixture) verified(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var ok bool
	err := f.store.WithTx(f.ctx, func(tx database.Tx) error {
		u, err := tx.GetUserByID(f.ctx, id)
		if err != nil {
			return err
		}
		ok = u.EmailVerified
		return nil
	})
	require.NoError(t, err)
	return ok
}

type recordingLocker struct {
	mu    sync.Mutex
	pairs [][2]uuid.UUID
}

func (l *recordingLocker) LockPair(_ context.Context, a, b uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pairs = append(l.pairs, [2]uuid.UUID{a, b})
	return func() {}, nil
}

// racingStore makes the first friendship insert lose to a concurrent writer:
// the insert fails with ErrConflict and the competing friendship is committed
// once the losing transaction has ended.
type racingStore struct {
	*memory.Store
	raced  bool
	winner *models.Friendship
}

func (s *racingStore) WithTx(ctx context.Context, fn func(tx database.Tx) error) error {
	err := s.Store.WithTx(ctx, func(tx database.Tx) error {
		return fn(racingTx{Tx: tx, s: s})
	})
	if w := s.winner; w != nil {
		s.winner = nil
		if werr := s.Store.WithTx(ctx, func(tx database.Tx) error { return tx.CreateFriendship(ctx, w) }); werr != nil {
			return werr
		}
	}
	return err
}

type racingTx struct {
	database.Tx
	s *racingStore
}

func (t racingTx) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	if !t.s.raced {
		t.s.raced = true
		t.s.winner = &models.Friendship{FromUserID: f.ToUserID, ToUserID: f.FromUserID}
		return database.ErrConflict
	}
	return t.Tx.CreateFriendship(ctx, f)
}

var errSMTPDown = errors.New("smtp unavailable")
