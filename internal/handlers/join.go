package handlers

import (
	"net/http"

	"github.com/jason-s-yu/friends/internal/friends"
	"github.com/jason-s-yu/friends/internal/models"
)

type joinInvitationRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SendJoinInvitationHandler emails an invitation to join the site.
func (s *Server) SendJoinInvitationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req joinInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := s.Friends.SendJoinInvitation(r.Context(), userID, req.Email, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) ListJoinInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	list, err := s.Friends.JoinInvitations(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.JoinInvitation{}
	}
	writeJSON(w, http.StatusOK, list)
}

type acceptJoinRequest struct {
	ConfirmationKey string `json:"confirmation_key"`
}

// AcceptJoinInvitationHandler accepts a join invitation for an account that
// already exists, e.g. one created before following the link.
func (s *Server) AcceptJoinInvitationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req acceptJoinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ConfirmationKey == "" {
		http.Error(w, "missing confirmation_key", http.StatusBadRequest)
		return
	}
	inv, err := s.Friends.AcceptJoinInvitation(r.Context(), req.ConfirmationKey, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

type joinLinkResponse struct {
	*friends.PendingJoin
	// SignupPath is where a visitor without an account posts the
	// confirmation key along with the new account.
	SignupPath string `json:"signup_path"`
}

// JoinAcceptLinkHandler serves the accept link mailed with a join invitation.
// A signed-in visitor accepts it directly. Anyone else gets the invitation
// details and the key to send with /user/create.
func (s *Server) JoinAcceptLinkHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	if extractToken(r) != "" {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		inv, err := s.Friends.AcceptJoinInvitation(r.Context(), key, userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
		return
	}

	pending, err := s.Friends.LookupJoinInvitation(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joinLinkResponse{PendingJoin: pending, SignupPath: "/user/create"})
}
