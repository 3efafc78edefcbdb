// Package sections provides the section registry and the ordered section collection of a document.
package sections

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Type tags the semantic kind of a section.
type Type string

// Section types. The set is closed: every Type has a catalog entry and a payload.
const (
	TypePersonalInfo   Type = "personal-info"
	TypeExperience     Type = "experience"
	TypeEducation      Type = "education"
	TypeSkills         Type = "skills"
	TypeLanguages      Type = "languages"
	TypeHobbies        Type = "hobbies"
	TypeProjects       Type = "projects"
	TypeCertifications Type = "certifications"
	TypePublications   Type = "publications"
	TypeReferences     Type = "references"
	TypeAchievements   Type = "achievements"
	TypeVolunteering   Type = "volunteering"
	TypeCustom         Type = "custom"
)

//go:embed catalog/sections.yaml
var catalogFile embed.FS

// Entry describes one section type for display.
type Entry struct {
	Type    Type   `yaml:"type" json:"type"`
	Label   string `yaml:"label" json:"label"`
	Icon    string `yaml:"icon" json:"icon"`
	Builtin bool   `yaml:"builtin" json:"builtin"`
}

type catalog struct {
	Sections []Entry `yaml:"sections"`
}

// Registry is the static catalog of section types.
type Registry struct {
	entries map[Type]Entry
	order   []Type
}

var (
	defaultRegistry     *Registry
	defaultRegistryErr  error
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry built from the embedded catalog.
// The catalog is compiled in, so a failure here is a build defect and panics.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		data, err := catalogFile.ReadFile("catalog/sections.yaml")
		if err != nil {
			defaultRegistryErr = err
			return
		}
		defaultRegistry, defaultRegistryErr = NewRegistry(data)
	})
	if defaultRegistryErr != nil {
		panic(fmt.Sprintf("failed to load section catalog: %v", defaultRegistryErr))
	}
	return defaultRegistry
}

// NewRegistry parses a YAML catalog. Every entry must name a type with a payload,
// and every type with a payload must appear exactly once.
func NewRegistry(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse section catalog: %w", err)
	}

	r := &Registry{entries: make(map[Type]Entry, len(c.Sections))}
	for _, e := range c.Sections {
		if _, err := DefaultPayload(e.Type); err != nil {
			return nil, err
		}
		if _, dup := r.entries[e.Type]; dup {
			return nil, fmt.Errorf("duplicate section type in catalog: %s", e.Type)
		}
		r.entries[e.Type] = e
		r.order = append(r.order, e.Type)
	}

	for _, t := range allTypes {
		if _, ok := r.entries[t]; !ok {
			return nil, fmt.Errorf("section type missing from catalog: %s", t)
		}
	}
	return r, nil
}

var allTypes = []Type{
	TypePersonalInfo, TypeExperience, TypeEducation, TypeSkills, TypeLanguages, TypeHobbies,
	TypeProjects, TypeCertifications, TypePublications, TypeReferences, TypeAchievements,
	TypeVolunteering, TypeCustom,
}

// Lookup returns the catalog entry for t, or an *UnknownTypeError.
func (r *Registry) Lookup(t Type) (Entry, error) {
	e, ok := r.entries[t]
	if !ok {
		return Entry{}, &UnknownTypeError{Type: t}
	}
	return e, nil
}

// MustLookup is Lookup for callers that hold a Type obtained from the registry itself.
func (r *Registry) MustLookup(t Type) Entry {
	e, err := r.Lookup(t)
	if err != nil {
		panic(err)
	}
	return e
}

// Types returns all section types in catalog order.
func (r *Registry) Types() []Type {
	return append([]Type(nil), r.order...)
}

// Entries returns all catalog entries in catalog order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.entries[t])
	}
	return out
}

// Builtin returns the built-in types in catalog order.
func (r *Registry) Builtin() []Type {
	var out []Type
	for _, t := range r.order {
		if r.entries[t].Builtin {
			out = append(out, t)
		}
	}
	return out
}

// IsBuiltin reports whether t is a built-in section whose content lives in DocumentData.
func (r *Registry) IsBuiltin(t Type) bool {
	return r.entries[t].Builtin
}

// Lookup resolves t against the default registry.
func Lookup(t Type) (Entry, error) {
	return DefaultRegistry().Lookup(t)
}
