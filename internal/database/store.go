// internal/database/store.go

package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/friends/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// Store runs fn inside one transaction. Either every write made through the
// Tx is committed or none is.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of queries available inside a transaction.
type Tx interface {
	UserStore
	ContactStore
	FriendshipStore
	InvitationStore
	JoinInvitationStore
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type ContactStore interface {
	// GetOrCreateContact returns the owner's contact for email, creating it
	// when absent. The bool reports whether a row was created.
	GetOrCreateContact(ctx context.Context, ownerID uuid.UUID, email, name string) (*models.Contact, bool, error)
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListContacts(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error)
	ContactsByEmail(ctx context.Context, email string) ([]models.Contact, error)
	AddContactUser(ctx context.Context, contactID, userID uuid.UUID) error
}

type FriendshipStore interface {
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	// GetFriendship finds the friendship for the unordered pair {a, b}.
	GetFriendship(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	ListFriendships(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	DeleteFriendship(ctx context.Context, id uuid.UUID) error
}

type InvitationStore interface {
	// CreateFriendshipInvitation archives every existing invitation for the
	// same (from, to) pair into history, then inserts inv.
	CreateFriendshipInvitation(ctx context.Context, inv *models.FriendshipInvitation) error
	GetFriendshipInvitation(ctx context.Context, id uuid.UUID) (*models.FriendshipInvitation, error)
	// InvitationsBetween returns the invitations from -> to (one direction).
	InvitationsBetween(ctx context.Context, fromID, toID uuid.UUID) ([]models.FriendshipInvitation, error)
	// ListFriendshipInvitations returns every invitation sent to or from userID.
	ListFriendshipInvitations(ctx context.Context, userID uuid.UUID) ([]models.FriendshipInvitation, error)
	SetFriendshipInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error
	ListInvitationHistory(ctx context.Context, a, b uuid.UUID) ([]models.FriendshipInvitationHistory, error)
}

type JoinInvitationStore interface {
	CreateJoinInvitation(ctx context.Context, inv *models.JoinInvitation) error
	GetJoinInvitationByKey(ctx context.Context, key string) (*models.JoinInvitation, error)
	ListJoinInvitations(ctx context.Context, fromID uuid.UUID) ([]models.JoinInvitation, error)
	JoinInvitationsForEmail(ctx context.Context, email string) ([]models.JoinInvitation, error)
	SetJoinInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error
	// ExpireJoinInvitations moves Sent invitations older than before to
	// Expired and returns how many changed.
	ExpireJoinInvitations(ctx context.Context, before time.Time) (int64, error)
}

// NoticeStore persists rendered notices. It lives outside Tx because notices
// are written by the worker, never as part of a core transaction.
type NoticeStore interface {
	InsertNotice(ctx context.Context, n *models.Notice) error
	ListNotices(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notice, error)
	MarkNoticeRead(ctx context.Context, recipientID, noticeID uuid.UUID, at time.Time) error
}
