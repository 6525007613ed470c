package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is shared by friendship and join invitations. The values
// are the single-character codes persisted in the status columns.
type InvitationStatus string

const (
	StatusCreated             InvitationStatus = "1"
	StatusSent                InvitationStatus = "2"
	StatusFailed              InvitationStatus = "3"
	StatusExpired             InvitationStatus = "4"
	StatusAccepted            InvitationStatus = "5"
	StatusDeclined            InvitationStatus = "6"
	StatusJoinedIndependently InvitationStatus = "7"
	StatusDeleted             InvitationStatus = "8"
)

var statusNames = map[InvitationStatus]string{
	StatusCreated:             "created",
	StatusSent:                "sent",
	StatusFailed:              "failed",
	StatusExpired:             "expired",
	StatusAccepted:            "accepted",
	StatusDeclined:            "declined",
	StatusJoinedIndependently: "joined_independently",
	StatusDeleted:             "deleted",
}

func (s InvitationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s InvitationStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Live reports whether a friendship invitation still shows up in listings.
func (s InvitationStatus) Live() bool {
	return s != StatusDeclined && s != StatusDeleted
}

type FriendshipInvitation struct {
	ID         uuid.UUID        `json:"id"`
	FromUserID uuid.UUID        `json:"from_user_id"`
	ToUserID   uuid.UUID        `json:"to_user_id"`
	Message    string           `json:"message"`
	Sent       time.Time        `json:"sent"`
	Status     InvitationStatus `json:"status"`
}

// FriendshipInvitationHistory is a verbatim copy of an invitation that was
// displaced by a newer one for the same (from, to) pair.
type FriendshipInvitationHistory struct {
	ID         uuid.UUID        `json:"id"`
	FromUserID uuid.UUID        `json:"from_user_id"`
	ToUserID   uuid.UUID        `json:"to_user_id"`
	Message    string           `json:"message"`
	Sent       time.Time        `json:"sent"`
	Status     InvitationStatus `json:"status"`
	ArchivedAt time.Time        `json:"archived_at"`
}

type JoinInvitation struct {
	ID              uuid.UUID        `json:"id"`
	FromUserID      uuid.UUID        `json:"from_user_id"`
	ContactID       uuid.UUID        `json:"contact_id"`
	Message         string           `json:"message"`
	Sent            time.Time        `json:"sent"`
	Status          InvitationStatus `json:"status"`
	ConfirmationKey string           `json:"-"`
}
