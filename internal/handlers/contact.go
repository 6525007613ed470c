package handlers

import (
	"mime"
	"net/http"

	"github.com/jason-s-yu/friends/internal/models"
)

// maxImportSize caps a vCard upload.
const maxImportSize = 4 << 20

func (s *Server) ListContactsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	list, err := s.Friends.Contacts(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, list)
}

type addContactRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) AddContactHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req addContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, created, err := s.Friends.AddContact(r.Context(), userID, req.Email, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

// ImportContactsHandler reads a text/vcard body into the caller's contacts.
func (s *Server) ImportContactsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || (mt != "text/vcard" && mt != "text/x-vcard") {
		http.Error(w, "expected text/vcard body", http.StatusUnsupportedMediaType)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportSize)
	imported, total, err := s.Friends.ImportVCards(r.Context(), userID, body)
	if err != nil {
		http.Error(w, "could not import vcards: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported, "total": total})
}
