// Package rendering turns a document, its sections and its style into printable HTML.
// Every template shares the same Input contract and is selected by id.
package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/types"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Template ids.
const (
	TemplateModern   = "modern"
	TemplateClassic  = "classic"
	TemplateMinimal  = "minimal"
	TemplateCreative = "creative"
	TemplateLetter   = "letter"
)

var builtinTemplates = []string{TemplateModern, TemplateClassic, TemplateMinimal, TemplateCreative, TemplateLetter}

// Renderer writes one document as a complete HTML page.
type Renderer interface {
	ID() string
	Render(w io.Writer, in Input) error
}

type htmlRenderer struct {
	id       string
	set      *template.Template
	registry *sections.Registry
}

func (r *htmlRenderer) ID() string { return r.id }

// Render executes the template into a buffer first so that w never receives a partial page.
func (r *htmlRenderer) Render(w io.Writer, in Input) error {
	v, err := buildView(in, r.registry)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, r.id, v); err != nil {
		return &TemplateError{Message: fmt.Sprintf("failed to execute template %s", r.id), Cause: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &RenderError{Message: "failed to write output", Cause: err}
	}
	return nil
}

// Registry holds the available renderers keyed by id.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry of built-in templates. It panics if an embedded
// template fails to parse.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(sections.DefaultRegistry())
		if err != nil {
			panic(fmt.Sprintf("failed to load templates: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// NewRegistry parses the embedded templates.
func NewRegistry(sectionRegistry *sections.Registry) (*Registry, error) {
	set, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse templates", Cause: err}
	}

	r := &Registry{renderers: make(map[string]Renderer, len(builtinTemplates))}
	for _, id := range builtinTemplates {
		if set.Lookup(id) == nil {
			return nil, &TemplateError{Message: fmt.Sprintf("template %s is not defined", id)}
		}
		r.renderers[id] = &htmlRenderer{id: id, set: set, registry: sectionRegistry}
	}
	return r, nil
}

// Register adds or replaces a renderer.
func (r *Registry) Register(renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[renderer.ID()] = renderer
}

// Get returns the renderer for id.
func (r *Registry) Get(id string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[id]
	if !ok {
		return nil, &TemplateError{Message: fmt.Sprintf("unknown template: %q", id)}
	}
	return renderer, nil
}

// For picks the renderer of in: letters always use the letter template, résumés use the
// style's template id.
func (r *Registry) For(in Input) (Renderer, error) {
	if in.Document != nil && in.Document.Kind == types.KindLetter {
		return r.Get(TemplateLetter)
	}
	id := in.Style.WithDefaults().Template
	if id == TemplateLetter {
		return nil, &TemplateError{Message: "letter template cannot render a résumé"}
	}
	return r.Get(id)
}

// IDs returns the registered template ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.renderers))
	for id := range r.renderers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RenderString renders in with the renderer chosen by For.
func (r *Registry) RenderString(in Input) (string, error) {
	renderer, err := r.For(in)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := renderer.Render(&sb, in); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// PlainText returns the visible text of an HTML page with whitespace collapsed.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, head").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
