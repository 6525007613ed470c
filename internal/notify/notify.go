// Package notify delivers notices about friendship events to users.
//
// The core depends only on Sender. Without a configured backend it runs with
// Nop, which drops every notice.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Notice types, one per event the friendship core reports.
const (
	FriendsInvite       = "friends_invite"
	FriendsInviteSent   = "friends_invite_sent"
	FriendsAccept       = "friends_accept"
	FriendsAcceptSent   = "friends_accept_sent"
	FriendsOtherConnect = "friends_otherconnect"
	JoinAccept          = "join_accept"
)

// Types lists every notice type the service emits.
var Types = []string{
	FriendsInvite,
	FriendsInviteSent,
	FriendsAccept,
	FriendsAcceptSent,
	FriendsOtherConnect,
	JoinAccept,
}

// Sender hands notices off for delivery. Send should return quickly; callers
// treat any error as best-effort and only log it.
type Sender interface {
	Send(ctx context.Context, recipients []uuid.UUID, noticeType string, data map[string]string) error
}

// Nop discards notices.
type Nop struct{}

func (Nop) Send(context.Context, []uuid.UUID, string, map[string]string) error { return nil }

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, recipients []uuid.UUID, noticeType string, data map[string]string) error

func (f SenderFunc) Send(ctx context.Context, recipients []uuid.UUID, noticeType string, data map[string]string) error {
	return f(ctx, recipients, noticeType, data)
}
