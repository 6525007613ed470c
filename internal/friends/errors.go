package friends

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/friends/internal/database"
)

var (
	// ErrValidation is wrapped by every error that rejects a request before
	// any state is changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the invitation, friendship or user does not exist.
	ErrNotFound = fmt.Errorf("friends: %w", database.ErrNotFound)
	// ErrForbidden means the acting user is not allowed to move the invitation.
	ErrForbidden = errors.New("not allowed to act on this invitation")

	ErrSelfInvite          = fmt.Errorf("%w: cannot invite yourself", ErrValidation)
	ErrUnknownUser         = fmt.Errorf("%w: unknown user", ErrValidation)
	ErrAlreadyFriends      = fmt.Errorf("%w: already friends", ErrValidation)
	ErrDuplicateInvitation = fmt.Errorf("%w: an invitation between these users is already pending", ErrValidation)
	ErrInvitationClosed    = fmt.Errorf("%w: invitation is no longer open", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email address", ErrValidation)
)

// notFound maps a storage miss to ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
