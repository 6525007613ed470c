package handlers

import (
	"net/http"

	"github.com/jason-s-yu/friends/internal/friends"
)

// ListFriendsHandler returns the caller's friends.
func (s *Server) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	list, err := s.Friends.Friends(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []friends.Friend{}
	}
	writeJSON(w, http.StatusOK, list)
}

// AreFriendsHandler reports whether the caller and {id} are friends.
func (s *Server) AreFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	otherID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ok, err := s.Friends.AreFriends(r.Context(), userID, otherID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"friends": ok})
}

// RemoveFriendHandler ends the friendship between the caller and {id}.
func (s *Server) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	otherID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Friends.RemoveFriend(r.Context(), userID, otherID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
