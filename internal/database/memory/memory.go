// Package memory keeps every entity in process memory. It enforces the same
// uniqueness rules as the PostgreSQL schema and is used by tests and by
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/models"
)

type state struct {
	users       map[uuid.UUID]models.User
	contacts    map[uuid.UUID]models.Contact
	friendships map[uuid.UUID]models.Friendship
	invitations map[uuid.UUID]models.FriendshipInvitation
	history     []models.FriendshipInvitationHistory
	joins       map[uuid.UUID]models.JoinInvitation
	notices     []models.Notice
}

func newState() *state {
	return &state{
		users:       make(map[uuid.UUID]models.User),
		contacts:    make(map[uuid.UUID]models.Contact),
		friendships: make(map[uuid.UUID]models.Friendship),
		invitations: make(map[uuid.UUID]models.FriendshipInvitation),
		joins:       make(map[uuid.UUID]models.JoinInvitation),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.contacts {
		v.Users = slices.Clone(v.Users)
		c.contacts[k] = v
	}
	for k, v := range s.friendships {
		c.friendships[k] = v
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	for k, v := range s.joins {
		c.joins[k] = v
	}
	c.history = slices.Clone(s.history)
	c.notices = slices.Clone(s.notices)
	return c
}

// Store is safe for concurrent use. Transactions are serialised.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var (
	_ database.Store       = (*Store)(nil)
	_ database.NoticeStore = (*Store)(nil)
)

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock replaces the time source used for Sent/Added/CreatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WithTx runs fn against a copy of the state and keeps the copy only when fn
// succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx database.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

var _ database.Tx = (*tx)(nil)

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *tx) CreateUser(_ context.Context, user *models.User) error {
	user.ID = newID(user.ID)
	user.Email = normEmail(user.Email)
	for _, u := range t.st.users {
		if u.ID == user.ID || (user.Email != "" && u.Email == user.Email) {
			return database.ErrConflict
		}
	}
	user.CreatedAt = t.now()
	t.st.users[user.ID] = *user
	return nil
}

func (t *tx) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (t *tx) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = normEmail(email)
	for _, u := range t.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (t *tx) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	u, ok := t.st.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.EmailVerified = true
	t.st.users[id] = u
	return nil
}

func (t *tx) GetOrCreateContact(_ context.Context, ownerID uuid.UUID, email, name string) (*models.Contact, bool, error) {
	for _, c := range t.st.contacts {
		if c.OwnerID == ownerID && c.Email == email {
			c.Users = slices.Clone(c.Users)
			return &c, false, nil
		}
	}
	c := models.Contact{ID: uuid.New(), OwnerID: ownerID, Name: name, Email: email, Added: t.now()}
	t.st.contacts[c.ID] = c
	return &c, true, nil
}

func (t *tx) GetContact(_ context.Context, id uuid.UUID) (*models.Contact, error) {
	c, ok := t.st.contacts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c.Users = slices.Clone(c.Users)
	return &c, nil
}

func (t *tx) ListContacts(_ context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	return t.filterContacts(func(c models.Contact) bool { return c.OwnerID == ownerID }), nil
}

func (t *tx) ContactsByEmail(_ context.Context, email string) ([]models.Contact, error) {
	return t.filterContacts(func(c models.Contact) bool { return c.Email == email }), nil
}

func (t *tx) filterContacts(keep func(models.Contact) bool) []models.Contact {
	var out []models.Contact
	for _, c := range t.st.contacts {
		if keep(c) {
			c.Users = slices.Clone(c.Users)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Added.Equal(out[j].Added) {
			return out[i].Added.Before(out[j].Added)
		}
		return out[i].Email < out[j].Email
	})
	return out
}

func (t *tx) AddContactUser(_ context.Context, contactID, userID uuid.UUID) error {
	c, ok := t.st.contacts[contactID]
	if !ok {
		return database.ErrNotFound
	}
	if !slices.Contains(c.Users, userID) {
		c.Users = append(slices.Clone(c.Users), userID)
	}
	t.st.contacts[contactID] = c
	return nil
}

func (t *tx) CreateFriendship(_ context.Context, f *models.Friendship) error {
	if f.FromUserID == f.ToUserID {
		return database.ErrConflict
	}
	key := models.PairKey(f.FromUserID, f.ToUserID)
	for _, existing := range t.st.friendships {
		if models.PairKey(existing.FromUserID, existing.ToUserID) == key {
			return database.ErrConflict
		}
	}
	f.ID = newID(f.ID)
	f.Added = t.now()
	t.st.friendships[f.ID] = *f
	return nil
}

func (t *tx) GetFriendship(_ context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	key := models.PairKey(a, b)
	for _, f := range t.st.friendships {
		if models.PairKey(f.FromUserID, f.ToUserID) == key {
			return &f, nil
		}
	}
	return nil, database.ErrNotFound
}

func (t *tx) ListFriendships(_ context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, f := range t.st.friendships {
		if f.Involves(userID) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Added.Equal(out[j].Added) {
			return out[i].Added.Before(out[j].Added)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (t *tx) DeleteFriendship(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.friendships[id]; !ok {
		return database.ErrNotFound
	}
	delete(t.st.friendships, id)
	return nil
}

func (t *tx) CreateFriendshipInvitation(_ context.Context, inv *models.FriendshipInvitation) error {
	now := t.now()
	for id, prev := range t.st.invitations {
		if prev.FromUserID == inv.FromUserID && prev.ToUserID == inv.ToUserID {
			t.st.history = append(t.st.history, models.FriendshipInvitationHistory{
				ID:         uuid.New(),
				FromUserID: prev.FromUserID,
				ToUserID:   prev.ToUserID,
				Message:    prev.Message,
				Sent:       prev.Sent,
				Status:     prev.Status,
				ArchivedAt: now,
			})
			delete(t.st.invitations, id)
		}
	}
	inv.ID = newID(inv.ID)
	inv.Sent = now
	t.st.invitations[inv.ID] = *inv
	return nil
}

func (t *tx) GetFriendshipInvitation(_ context.Context, id uuid.UUID) (*models.FriendshipInvitation, error) {
	inv, ok := t.st.invitations[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &inv, nil
}

func (t *tx) InvitationsBetween(_ context.Context, fromID, toID uuid.UUID) ([]models.FriendshipInvitation, error) {
	return t.filterInvitations(func(inv models.FriendshipInvitation) bool {
		return inv.FromUserID == fromID && inv.ToUserID == toID
	}), nil
}

func (t *tx) ListFriendshipInvitations(_ context.Context, userID uuid.UUID) ([]models.FriendshipInvitation, error) {
	return t.filterInvitations(func(inv models.FriendshipInvitation) bool {
		return inv.FromUserID == userID || inv.ToUserID == userID
	}), nil
}

func (t *tx) filterInvitations(keep func(models.FriendshipInvitation) bool) []models.FriendshipInvitation {
	var out []models.FriendshipInvitation
	for _, inv := range t.st.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sent.After(out[j].Sent) })
	return out
}

func (t *tx) SetFriendshipInvitationStatus(_ context.Context, id uuid.UUID, status models.InvitationStatus) error {
	inv, ok := t.st.invitations[id]
	if !ok {
		return database.ErrNotFound
	}
	inv.Status = status
	t.st.invitations[id] = inv
	return nil
}

func (t *tx) ListInvitationHistory(_ context.Context, a, b uuid.UUID) ([]models.FriendshipInvitationHistory, error) {
	key := models.PairKey(a, b)
	var out []models.FriendshipInvitationHistory
	for i := len(t.st.history) - 1; i >= 0; i-- {
		h := t.st.history[i]
		if models.PairKey(h.FromUserID, h.ToUserID) == key {
			out = append(out, h)
		}
	}
	return out, nil
}

func (t *tx) CreateJoinInvitation(_ context.Context, inv *models.JoinInvitation) error {
	for _, existing := range t.st.joins {
		if existing.ConfirmationKey == inv.ConfirmationKey {
			return database.ErrConflict
		}
	}
	if _, ok := t.st.contacts[inv.ContactID]; !ok {
		return database.ErrNotFound
	}
	inv.ID = newID(inv.ID)
	inv.Sent = t.now()
	t.st.joins[inv.ID] = *inv
	return nil
}

func (t *tx) GetJoinInvitationByKey(_ context.Context, key string) (*models.JoinInvitation, error) {
	for _, inv := range t.st.joins {
		if inv.ConfirmationKey == key {
			return &inv, nil
		}
	}
	return nil, database.ErrNotFound
}

func (t *tx) ListJoinInvitations(_ context.Context, fromID uuid.UUID) ([]models.JoinInvitation, error) {
	return t.filterJoins(func(inv models.JoinInvitation) bool { return inv.FromUserID == fromID }), nil
}

func (t *tx) JoinInvitationsForEmail(_ context.Context, email string) ([]models.JoinInvitation, error) {
	return t.filterJoins(func(inv models.JoinInvitation) bool {
		c, ok := t.st.contacts[inv.ContactID]
		return ok && c.Email == email
	}), nil
}

func (t *tx) filterJoins(keep func(models.JoinInvitation) bool) []models.JoinInvitation {
	var out []models.JoinInvitation
	for _, inv := range t.st.joins {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sent.Before(out[j].Sent) })
	return out
}

func (t *tx) SetJoinInvitationStatus(_ context.Context, id uuid.UUID, status models.InvitationStatus) error {
	inv, ok := t.st.joins[id]
	if !ok {
		return database.ErrNotFound
	}
	inv.Status = status
	t.st.joins[id] = inv
	return nil
}

func (t *tx) ExpireJoinInvitations(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, inv := range t.st.joins {
		if inv.Status == models.StatusSent && inv.Sent.Before(before) {
			inv.Status = models.StatusExpired
			t.st.joins[id] = inv
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertNotice(_ context.Context, n *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = newID(n.ID)
	n.CreatedAt = s.now()
	s.st.notices = append(s.st.notices, *n)
	return nil
}

func (s *Store) ListNotices(_ context.Context, recipientID uuid.UUID, limit int) ([]models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notice
	for i := len(s.st.notices) - 1; i >= 0 && len(out) < limit; i-- {
		if s.st.notices[i].RecipientID == recipientID {
			out = append(out, s.st.notices[i])
		}
	}
	return out, nil
}

func (s *Store) MarkNoticeRead(_ context.Context, recipientID, noticeID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.st.notices {
		n := &s.st.notices[i]
		if n.ID == noticeID && n.RecipientID == recipientID {
			if n.ReadAt == nil {
				n.ReadAt = &at
			}
			return nil
		}
	}
	return database.ErrNotFound
}
