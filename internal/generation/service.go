// Package generation produces the final version of a résumé or cover letter on the server side.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/rewriting"
	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// Service checks the caller's quota, enhances the document and records the result.
type Service struct {
	gate    *plans.Gate
	gateway rewriting.Gateway
	store   storage.Store
}

// NewService creates a Service.
func NewService(gate *plans.Gate, gateway rewriting.Gateway, store storage.Store) *Service {
	return &Service{gate: gate, gateway: gateway, store: store}
}

// Generate returns the enhanced document for kind. The input is left untouched.
// A *plans.LimitReachedError is returned when the quota is exhausted; nothing is recorded then.
func (s *Service) Generate(ctx context.Context, id plans.Identity, kind types.Kind, doc *types.DocumentData) (*types.DocumentData, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid document kind %q", kind)
	}
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	if err := s.gate.Check(ctx, id, kind); err != nil {
		return nil, err
	}

	start := time.Now()
	in := doc.Clone()
	in.Kind = kind
	out := rewriting.EnhanceDocument(ctx, s.gateway, in)
	log.Printf("[generation] %s for user %s enhanced %d fields in %v", kind, id.UserID, len(in.TextFields()), time.Since(start))

	if err := s.store.RecordGeneration(ctx, id.UserID, kind); err != nil {
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generated document: %w", err)
	}
	if err := s.store.Save(ctx, id.UserID, storage.GeneratedKey(kind), data); err != nil {
		return nil, fmt.Errorf("failed to store generated document: %w", err)
	}

	return out, nil
}

// Latest returns the last generated document of kind, or nil when there is none.
func (s *Service) Latest(ctx context.Context, userID string, kind types.Kind) (*types.DocumentData, error) {
	data, err := s.store.Load(ctx, userID, storage.GeneratedKey(kind))
	if err != nil || data == nil {
		return nil, err
	}
	var doc types.DocumentData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode generated document: %w", err)
	}
	return &doc, nil
}
