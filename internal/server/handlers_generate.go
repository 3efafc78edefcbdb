package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/rewriting"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/types"
)

// handleOptimize rewrites one field. Model failures answer 502 so that callers fall
// back to the original text.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req rewriting.Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if s.optimizer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Optimisation indisponible")
		return
	}

	out, err := s.optimizer.Optimize(r.Context(), req.Text, req.Field)
	if err != nil {
		log.Printf("[server] optimize failed for field %s: %v", req.Field, err)
		s.errorResponse(w, http.StatusBadGateway, "Erreur lors de l'optimisation")
		return
	}
	s.jsonResponse(w, http.StatusOK, rewriting.Response{Optimized: out})
}

// handleGenerate returns the handler producing the final document of kind.
func (s *Server) handleGenerate(kind types.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w, r)
		if !ok {
			return
		}

		doc, err := s.decodeDocument(w, r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		out, err := s.generator.Generate(r.Context(), id, kind, doc)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, out)
	}
}

// handleGeneratePDF renders and prints a document.
func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var in rendering.Input
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	s.exportPDF(w, r, id.UserID, in)
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request, userID string, in rendering.Input) {
	res, err := s.exports.Export(r.Context(), userID, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writePDF(w, res)
}

func writePDF(w http.ResponseWriter, res *export.Result) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	if res.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", res.ArchiveKey)
	}
	if res.ArchiveURL != "" {
		w.Header().Set("X-Archive-URL", res.ArchiveURL)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.PDF); err != nil {
		log.Printf("[server] failed to write PDF %s: %v", res.FileName, err)
	}
}

// decodeDocument reads a DocumentData body, checking it against the document schema first.
func (s *Server) decodeDocument(w http.ResponseWriter, r *http.Request) (*types.DocumentData, error) {
	data, err := s.readBody(w, r)
	if err != nil {
		return nil, err
	}
	var doc types.DocumentData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := schemas.ValidateDocument(data); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(&doc); err != nil {
		return nil, validationError(err)
	}
	return &doc, nil
}
