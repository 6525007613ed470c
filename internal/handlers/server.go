// Package handlers exposes the friendship service over HTTP and streams
// notices over WebSocket.
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friends/internal/auth"
	"github.com/jason-s-yu/friends/internal/database"
	"github.com/jason-s-yu/friends/internal/friends"
	"github.com/jason-s-yu/friends/internal/middleware"
	"github.com/jason-s-yu/friends/internal/notify"
)

// Server holds everything the handlers need. Broadcaster may be nil, in which
// case the live notice stream is unavailable.
type Server struct {
	Friends     *friends.Service
	Store       database.Store
	Notices     database.NoticeStore
	Sessions    *auth.Sessions
	Broadcaster *notify.Broadcaster
	HookSecret  string
	Logger      logrus.FieldLogger
}

// Routes registers every endpoint on a new mux wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", s.CreateUserHandler)
	mux.HandleFunc("POST /user/login", s.LoginHandler)

	// friend endpoints
	mux.HandleFunc("GET /friends", s.ListFriendsHandler)
	mux.HandleFunc("GET /friends/{id}", s.AreFriendsHandler)
	mux.HandleFunc("DELETE /friends/{id}", s.RemoveFriendHandler)

	// friendship invitations
	mux.HandleFunc("POST /invitations", s.InviteHandler)
	mux.HandleFunc("GET /invitations", s.ListInvitationsHandler)
	mux.HandleFunc("POST /invitations/{id}/accept", s.AcceptInvitationHandler)
	mux.HandleFunc("POST /invitations/{id}/decline", s.DeclineInvitationHandler)
	mux.HandleFunc("POST /invitations/{id}/cancel", s.CancelInvitationHandler)
	mux.HandleFunc("GET /invitations/history/{userID}", s.InvitationHistoryHandler)

	// join invitations
	mux.HandleFunc("POST /join-invitations", s.SendJoinInvitationHandler)
	mux.HandleFunc("GET /join-invitations", s.ListJoinInvitationsHandler)
	mux.HandleFunc("GET /join/accept", s.JoinAcceptLinkHandler)
	mux.HandleFunc("POST /join/accept", s.AcceptJoinInvitationHandler)

	// contacts
	mux.HandleFunc("GET /contacts", s.ListContactsHandler)
	mux.HandleFunc("POST /contacts", s.AddContactHandler)
	mux.HandleFunc("POST /contacts/import", s.ImportContactsHandler)

	// notices
	mux.HandleFunc("GET /notices", s.ListNoticesHandler)
	mux.HandleFunc("POST /notices/{id}/read", s.MarkNoticeReadHandler)
	mux.HandleFunc("GET /notices/ws", s.NoticeWSHandler)

	mux.HandleFunc("POST /hooks/email-verified", s.EmailVerifiedHandler)

	return middleware.LogMiddleware(s.Logger)(mux)
}
