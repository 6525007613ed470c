package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jason-s-yu/friends/internal/models"
)

type inviteRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	Message  string    `json:"message"`
}

// InviteHandler sends a friendship invitation from the caller.
func (s *Server) InviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := s.Friends.Invite(r.Context(), userID, req.ToUserID, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ListInvitationsHandler returns live invitations to and from the caller.
func (s *Server) ListInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	list, err := s.Friends.Invitations(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.FriendshipInvitation{}
	}
	writeJSON(w, http.StatusOK, list)
}

type invitationAction func(ctx context.Context, invitationID, actorID uuid.UUID) (*models.FriendshipInvitation, error)

func (s *Server) invitationActionHandler(action invitationAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		invID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		inv, err := action(r.Context(), invID, userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func (s *Server) AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	s.invitationActionHandler(s.Friends.Accept)(w, r)
}

func (s *Server) DeclineInvitationHandler(w http.ResponseWriter, r *http.Request) {
	s.invitationActionHandler(s.Friends.Decline)(w, r)
}

func (s *Server) CancelInvitationHandler(w http.ResponseWriter, r *http.Request) {
	s.invitationActionHandler(s.Friends.Cancel)(w, r)
}

// InvitationHistoryHandler lists archived invitations between the caller and {userID}.
func (s *Server) InvitationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	otherID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	list, err := s.Friends.InvitationHistory(r.Context(), userID, otherID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.FriendshipInvitationHistory{}
	}
	writeJSON(w, http.StatusOK, list)
}
