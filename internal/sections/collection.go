package sections

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Section is one orderable, independently visible block of a document.
type Section struct {
	ID      string
	Type    Type
	Order   int
	Visible bool
	Data    Payload
}

type sectionJSON struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Order   int             `json:"order"`
	Visible bool            `json:"visible"`
	Data    json.RawMessage `json:"data"`
}

// MarshalJSON encodes the section with its payload under "data".
func (s Section) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sectionJSON{ID: s.ID, Type: s.Type, Order: s.Order, Visible: s.Visible, Data: data})
}

// UnmarshalJSON decodes "data" into the payload type registered for "type".
func (s *Section) UnmarshalJSON(b []byte) error {
	var raw sectionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p, err := DecodePayload(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	*s = Section{ID: raw.ID, Type: raw.Type, Order: raw.Order, Visible: raw.Visible, Data: p}
	return nil
}

// Collection is the ordered list of sections of one document.
// It is owned by a single editing session and is not safe for concurrent use.
type Collection struct {
	sections []Section
	registry *Registry
	newID    func() string
}

// Option configures a Collection.
type Option func(*Collection)

// WithIDGenerator overrides the id source. Generated ids must be unique for the process lifetime.
func WithIDGenerator(gen func() string) Option {
	return func(c *Collection) { c.newID = gen }
}

// WithRegistry sets the registry used to validate section types.
func WithRegistry(r *Registry) Option {
	return func(c *Collection) { c.registry = r }
}

// NewCollection returns an empty collection.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{
		registry: DefaultRegistry(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultCollection returns a collection seeded with the built-in sections in catalog order.
func DefaultCollection(opts ...Option) *Collection {
	c := NewCollection(opts...)
	for _, t := range c.registry.Builtin() {
		// built-in types come from the registry, Add cannot fail for them
		_, _ = c.Add(t)
	}
	return c
}

// FromSections rebuilds a collection from a snapshot, typically decoded from JSON.
// Sections are kept in slice order and renumbered; duplicated ids are rejected.
func FromSections(list []Section, opts ...Option) (*Collection, error) {
	c := NewCollection(opts...)
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		if s.ID == "" {
			return nil, fmt.Errorf("section without id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate section id: %s", s.ID)
		}
		seen[s.ID] = true
		if _, err := c.registry.Lookup(s.Type); err != nil {
			return nil, err
		}
		if s.Data == nil {
			s.Data, _ = DefaultPayload(s.Type)
		}
		if s.Data.Type() != s.Type {
			return nil, fmt.Errorf("section %s: %w", s.ID, ErrPayloadMismatch)
		}
		c.sections = append(c.sections, s)
	}
	c.renumber()
	return c, nil
}

// Add appends a new visible section of type t with an empty payload.
func (c *Collection) Add(t Type) (Section, error) {
	if _, err := c.registry.Lookup(t); err != nil {
		return Section{}, err
	}
	p, err := DefaultPayload(t)
	if err != nil {
		return Section{}, err
	}
	s := Section{
		ID:      c.newID(),
		Type:    t,
		Order:   len(c.sections),
		Visible: true,
		Data:    p,
	}
	c.sections = append(c.sections, s)
	return s, nil
}

// Remove deletes the section with the given id. Unknown ids are ignored.
func (c *Collection) Remove(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.sections = append(c.sections[:i], c.sections[i+1:]...)
	c.renumber()
}

// Reorder moves the section with the given id to newIndex, shifting the others.
// newIndex is clamped to the collection bounds. Unknown ids are ignored.
func (c *Collection) Reorder(id string, newIndex int) {
	from := c.index(id)
	if from < 0 {
		return
	}
	newIndex = max(0, min(newIndex, len(c.sections)-1))
	if from == newIndex {
		return
	}

	moved := c.sections[from]
	rest := append(c.sections[:from:from], c.sections[from+1:]...)
	out := make([]Section, 0, len(c.sections))
	out = append(out, rest[:newIndex]...)
	out = append(out, moved)
	out = append(out, rest[newIndex:]...)
	c.sections = out
	c.renumber()
}

// ToggleVisible flips the visibility of the section with the given id. Unknown ids are ignored.
func (c *Collection) ToggleVisible(id string) {
	if i := c.index(id); i >= 0 {
		c.sections[i].Visible = !c.sections[i].Visible
	}
}

// UpdateData replaces the payload of the section with the given id. Unknown ids are ignored.
func (c *Collection) UpdateData(id string, p Payload) error {
	i := c.index(id)
	if i < 0 {
		return nil
	}
	if p == nil || p.Type() != c.sections[i].Type {
		return ErrPayloadMismatch
	}
	c.sections[i].Data = p
	return nil
}

// Get returns the section with the given id.
func (c *Collection) Get(id string) (Section, bool) {
	if i := c.index(id); i >= 0 {
		return c.sections[i], true
	}
	return Section{}, false
}

// Sections returns a copy of all sections in order.
func (c *Collection) Sections() []Section {
	return append([]Section(nil), c.sections...)
}

// Visible returns the visible sections in order.
func (c *Collection) Visible() []Section {
	var out []Section
	for _, s := range c.sections {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// OfType returns the sections of type t in order.
func (c *Collection) OfType(t Type) []Section {
	var out []Section
	for _, s := range c.sections {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of sections.
func (c *Collection) Len() int {
	return len(c.sections)
}

// MarshalJSON encodes the collection as an ordered array of sections.
func (c *Collection) MarshalJSON() ([]byte, error) {
	if c.sections == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.sections)
}

func (c *Collection) index(id string) int {
	for i := range c.sections {
		if c.sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) renumber() {
	for i := range c.sections {
		c.sections[i].Order = i
	}
}
