package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/auth"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/friends"
	"github.com/jason-s-yu/friends/internal/models"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	// ConfirmationKey is set when the account is created from a join
	// invitation link.
	ConfirmationKey string `json:"confirmation_key,omitempty"`
}

// CreateUserHandler registers an account and starts a session for it.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := friends.NormalizeEmail(req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Password == "" || strings.TrimSpace(req.Username) == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u := &models.User{Email: email, Password: hash, Username: strings.TrimSpace(req.Username)}
	err = s.Store.WithTx(r.Context(), func(tx database.Tx) error {
		return tx.CreateUser(r.Context(), u)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.ConfirmationKey != "" {
		if _, err := s.Friends.AcceptJoinInvitation(r.Context(), req.ConfirmationKey, u.ID); err != nil {
			// the account exists either way
			s.Logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Warn("join invitation not accepted")
		}
	}

	if !s.startSession(w, r, u.ID) {
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var u *models.User
	err := s.Store.WithTx(r.Context(), func(tx database.Tx) error {
		var err error
		u, err = tx.GetUserByEmail(r.Context(), req.Email)
		return err
	})
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, u.Password)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !s.startSession(w, r, u.ID) {
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) bool {
	token, err := s.Sessions.CreateJWT(userID)
	if err != nil {
		s.writeError(w, r, err)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return true
}
