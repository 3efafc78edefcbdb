// Package editor holds the live editing sessions: one document with its sections and style each.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
)

var (
	// ErrSessionNotFound is returned for an unknown session or one owned by another user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSectionNotFound is returned for a section id absent from the session.
	ErrSectionNotFound = errors.New("section not found")
	// ErrTemplateKind is returned when a style selects the letter template for a résumé,
	// or a résumé template for a letter.
	ErrTemplateKind = errors.New("template does not match the document kind")
)

// Session is one document being edited. Fields are only accessed under the manager's
// per-session lock.
type Session struct {
	ID        string
	Owner     string
	Kind      types.Kind
	Document  *types.DocumentData
	Sections  *sections.Collection
	Style     style.State
	UpdatedAt time.Time
}

// Snapshot is an immutable copy of a session, safe to encode.
type Snapshot struct {
	ID        string              `json:"id"`
	Kind      types.Kind          `json:"kind"`
	Document  *types.DocumentData `json:"document"`
	Sections  []sections.Section  `json:"sections"`
	Style     style.State         `json:"style"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Kind:      s.Kind,
		Document:  s.Document.Clone(),
		Sections:  s.Sections.Sections(),
		Style:     s.Style,
		UpdatedAt: s.UpdatedAt,
	}
}

// Input returns the render input of the session.
func (s Snapshot) Input() rendering.Input {
	return rendering.Input{Document: s.Document, Style: s.Style, Sections: s.Sections}
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager keeps sessions in memory. Each session is guarded by its own mutex so that
// edits to different sessions never contend.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*entry), now: time.Now}
}

// Create starts a session for owner with an empty document of kind and the built-in sections.
func (m *Manager) Create(owner string, kind types.Kind) (Snapshot, error) {
	if !kind.Valid() {
		return Snapshot{}, fmt.Errorf("invalid document kind %q", kind)
	}
	s := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Kind:      kind,
		Document:  &types.DocumentData{Kind: kind},
		Sections:  sections.DefaultCollection(),
		Style:     style.Default(),
		UpdatedAt: m.now(),
	}
	if kind == types.KindLetter {
		s.Style.Template = rendering.TemplateLetter
	}

	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s}
	m.mu.Unlock()
	return s.snapshot(), nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(owner, id string) (Snapshot, error) {
	return m.update(owner, id, false, func(*Session) error { return nil })
}

// Delete ends a session.
func (m *Manager) Delete(owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.session.Owner != owner {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// SetDocument replaces the session document. The document kind is forced to the session kind.
func (m *Manager) SetDocument(owner, id string, doc *types.DocumentData) (Snapshot, error) {
	if doc == nil {
		return Snapshot{}, fmt.Errorf("document is required")
	}
	return m.update(owner, id, true, func(s *Session) error {
		s.Document = doc.Clone()
		s.Document.Kind = s.Kind
		return nil
	})
}

// ApplyStyle applies patch to the session style. The template, when set, must suit the
// session kind.
func (m *Manager) ApplyStyle(owner, id string, patch style.Patch) (Snapshot, error) {
	return m.update(owner, id, true, func(s *Session) error {
		if patch.Template != nil && (*patch.Template == rendering.TemplateLetter) != (s.Kind == types.KindLetter) {
			return ErrTemplateKind
		}
		s.Style = s.Style.Apply(patch)
		return nil
	})
}

// AddSection appends a section of type t.
func (m *Manager) AddSection(owner, id string, t sections.Type) (Snapshot, error) {
	return m.update(owner, id, true, func(s *Session) error {
		_, err := s.Sections.Add(t)
		return err
	})
}

// RemoveSection removes a section.
func (m *Manager) RemoveSection(owner, id, sectionID string) (Snapshot, error) {
	return m.withSection(owner, id, sectionID, func(s *Session) error {
		s.Sections.Remove(sectionID)
		return nil
	})
}

// MoveSection moves a section to index, clamped to the collection bounds.
func (m *Manager) MoveSection(owner, id, sectionID string, index int) (Snapshot, error) {
	return m.withSection(owner, id, sectionID, func(s *Session) error {
		s.Sections.Reorder(sectionID, index)
		return nil
	})
}

// ToggleSection flips a section's visibility.
func (m *Manager) ToggleSection(owner, id, sectionID string) (Snapshot, error) {
	return m.withSection(owner, id, sectionID, func(s *Session) error {
		s.Sections.ToggleVisible(sectionID)
		return nil
	})
}

// UpdateSection replaces a section payload from its JSON encoding.
func (m *Manager) UpdateSection(owner, id, sectionID string, raw json.RawMessage) (Snapshot, error) {
	return m.withSection(owner, id, sectionID, func(s *Session) error {
		sec, _ := s.Sections.Get(sectionID)
		p, err := sections.DecodePayload(sec.Type, raw)
		if err != nil {
			return err
		}
		return s.Sections.UpdateData(sectionID, p)
	})
}

// Prune drops sessions not updated since maxIdle and returns how many were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		idle := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) withSection(owner, id, sectionID string, fn func(*Session) error) (Snapshot, error) {
	return m.update(owner, id, true, func(s *Session) error {
		if _, ok := s.Sections.Get(sectionID); !ok {
			return ErrSectionNotFound
		}
		return fn(s)
	})
}

func (m *Manager) update(owner, id string, touch bool, fn func(*Session) error) (Snapshot, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Owner != owner {
		return Snapshot{}, ErrSessionNotFound
	}
	if err := fn(e.session); err != nil {
		return Snapshot{}, err
	}
	if touch {
		e.session.UpdatedAt = m.now()
	}
	return e.session.snapshot(), nil
}
