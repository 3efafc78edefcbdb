package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// draftKey returns the {key} path value when it names a known document key.
func draftKey(r *http.Request) (string, error) {
	key := r.PathValue("key")
	if !storage.ValidKey(key) {
		return "", &ErrUnknownDraftKey{Key: key}
	}
	return key, nil
}

// handleGetDraft returns the JSON stored under key. Drafts are returned as saved;
// generated documents are decoded and returned as a DocumentData.
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	key, err := draftKey(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch key {
	case storage.KeyGeneratedCV:
		s.writeLatest(w, r, id.UserID, types.KindCV)
		return
	case storage.KeyGeneratedLetter:
		s.writeLatest(w, r, id.UserID, types.KindLetter)
		return
	}

	data, err := s.store.Load(r.Context(), id.UserID, key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if data == nil {
		s.errorResponse(w, http.StatusNotFound, "Aucun document enregistré")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeLatest(w http.ResponseWriter, r *http.Request, userID string, kind types.Kind) {
	doc, err := s.generator.Latest(r.Context(), userID, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Aucun document enregistré")
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handlePutDraft stores the body under key. Autosaved drafts may be incomplete, so only
// JSON well-formedness is checked.
func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	key, err := draftKey(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !json.Valid(data) {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	if err := s.store.Save(r.Context(), id.UserID, key, data); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteDraft removes the document stored under key.
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	key, err := draftKey(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.Delete(r.Context(), id.UserID, key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
