package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

type emailVerifiedRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// EmailVerifiedHandler receives the event raised by the email verification
// service once an account proves ownership of an address.
func (s *Server) EmailVerifiedHandler(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Hook-Secret")
	if s.HookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.HookSecret)) != 1 {
		http.Error(w, "invalid hook secret", http.StatusForbidden)
		return
	}
	var req emailVerifiedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Friends.EmailVerified(r.Context(), req.UserID, req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
