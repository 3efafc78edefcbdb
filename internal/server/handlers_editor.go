package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
)

// CreateSessionRequest starts an editing session.
type CreateSessionRequest struct {
	Kind types.Kind `json:"kind" validate:"required,oneof=cv letter"`
}

// AddSectionRequest appends a section.
type AddSectionRequest struct {
	Type sections.Type `json:"type" validate:"required"`
}

// MoveSectionRequest moves a section. Out-of-range indexes are clamped.
type MoveSectionRequest struct {
	Index int `json:"index"`
}

// RewriteRequest asks for a rewrite of one text field of a session document. Key names the
// field instance, e.g. "experience-2", and defaults to Field.
type RewriteRequest struct {
	Text  string `json:"text" validate:"required"`
	Field string `json:"field" validate:"required"`
	Key   string `json:"key,omitempty"`
}

// RewriteResponse carries the rewritten text. When Superseded is true a newer rewrite of the
// same field started first and Optimized is the original text.
type RewriteResponse struct {
	Optimized  string `json:"optimized"`
	Superseded bool   `json:"superseded"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.sessions.Create(id.UserID, req.Kind)
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "kind", Message: err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(owner, id string) (editor.Snapshot, error) {
		return s.sessions.Get(owner, id)
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(id.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	doc, err := s.decodeDocument(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		return s.sessions.SetDocument(id.UserID, r.PathValue("id"), doc)
	})
}

// handleApplyStyle applies a partial style. Unknown keys and out-of-range scales are
// rejected by the style schema; the template must be registered.
func (s *Server) handleApplyStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var patch style.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := schemas.ValidateStyle(data); err != nil {
		s.writeError(w, err)
		return
	}
	if patch.Template != nil {
		if _, err := s.templates.Get(*patch.Template); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		return s.sessions.ApplyStyle(id.UserID, r.PathValue("id"), patch)
	})
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req AddSectionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		return s.sessions.AddSection(id.UserID, r.PathValue("id"), req.Type)
	})
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
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
	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		snap, err := s.sessions.UpdateSection(id.UserID, r.PathValue("id"), r.PathValue("sid"), data)
		if err != nil && HTTPStatus(err) == http.StatusInternalServerError {
			// The payload did not decode into the section type.
			return snap, &ErrValidation{Field: "data", Message: err.Error()}
		}
		return snap, err
	})
}

func (s *Server) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(owner, id string) (editor.Snapshot, error) {
		return s.sessions.RemoveSection(owner, id, r.PathValue("sid"))
	})
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req MoveSectionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		return s.sessions.MoveSection(id.UserID, r.PathValue("id"), r.PathValue("sid"), req.Index)
	})
}

func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(owner, id string) (editor.Snapshot, error) {
		return s.sessions.ToggleSection(owner, id, r.PathValue("sid"))
	})
}

// handleRewrite rewrites a field of the session document. Rewrites of the same field are
// sequenced per session so that only the latest one is applied by the client.
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	var req RewriteRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sessionID := r.PathValue("id")
	if _, err := s.sessions.Get(id.UserID, sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	key := req.Key
	if key == "" {
		key = req.Field
	}
	out, current := s.rewrites.Rewrite(r.Context(), id.UserID+"/"+sessionID+"/"+key, req.Text, req.Field)
	s.jsonResponse(w, http.StatusOK, RewriteResponse{Optimized: out, Superseded: !current})
}

// handlePreview renders the session as HTML with its current template.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	snap, err := s.sessions.Get(id.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	html, err := s.templates.RenderString(snap.Input())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// handleExportSession prints the session to PDF.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	snap, err := s.sessions.Get(id.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.exportPDF(w, r, id.UserID, snap.Input())
}

// withSession runs a bodiless session operation for the caller and writes the snapshot.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(owner, id string) (editor.Snapshot, error)) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	s.respondSnapshot(w, func() (editor.Snapshot, error) {
		return fn(id.UserID, r.PathValue("id"))
	})
}

func (s *Server) respondSnapshot(w http.ResponseWriter, fn func() (editor.Snapshot, error)) {
	snap, err := fn()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}
