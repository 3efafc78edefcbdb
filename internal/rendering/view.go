package rendering

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
)

// Input is what every template receives. Renderers never modify it.
type Input struct {
	Document *types.DocumentData `json:"document" validate:"required"`
	Style    style.State         `json:"style"`
	// Sections lists the document sections in display order. When empty the built-in
	// sections are used, all visible.
	Sections []sections.Section `json:"sections,omitempty"`
}

// Block is one visible section ready for display.
type Block struct {
	Type  sections.Type
	Label string
	Icon  string
	Data  sections.Payload
}

// view is the value handed to the templates
type view struct {
	Doc    types.DocumentData
	Person *sections.PersonalInfo
	Blocks []Block
	Style  style.State

	FontSizePx float64
	PhotoPx    float64
	GapRem     float64
}

const (
	baseFontPx  = 14.0
	basePhotoPx = 110.0
	baseGapRem  = 1.25
)

func buildView(in Input, reg *sections.Registry) (*view, error) {
	if in.Document == nil {
		return nil, &RenderError{Message: "document is required"}
	}
	doc := in.Document.Clone()
	st := in.Style.WithDefaults()

	list := in.Sections
	if len(list) == 0 {
		for _, t := range reg.Builtin() {
			p, _ := sections.DefaultPayload(t)
			list = append(list, sections.Section{Type: t, Visible: true, Data: p})
		}
	}

	v := &view{
		Doc:        *doc,
		Style:      st,
		FontSizePx: baseFontPx * st.FontScale,
		PhotoPx:    basePhotoPx * st.PhotoScale,
		GapRem:     baseGapRem * st.SpacingScale,
	}

	for _, s := range list {
		if !s.Visible {
			continue
		}
		entry, err := reg.Lookup(s.Type)
		if err != nil {
			return nil, &RenderError{Message: fmt.Sprintf("section %s", s.ID), Cause: err}
		}

		data := s.Data
		if data == nil || (entry.Builtin && data.Empty()) {
			if data, err = sections.FromDocument(s.Type, doc); err != nil {
				return nil, &RenderError{Message: fmt.Sprintf("section %s", s.ID), Cause: err}
			}
		}

		if info, ok := data.(sections.PersonalInfo); ok {
			v.Person = &info
			continue
		}
		if data.Empty() {
			continue
		}

		label := entry.Label
		if c, ok := data.(sections.Custom); ok && strings.TrimSpace(c.Heading) != "" {
			label = c.Heading
		}
		v.Blocks = append(v.Blocks, Block{Type: s.Type, Label: label, Icon: entry.Icon, Data: data})
	}

	return v, nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"lines": func(s string) []string {
		var out []string
		for _, l := range strings.Split(s, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
		return out
	},
	"period": func(start, end string, current bool) string {
		switch {
		case start == "" && end == "" && !current:
			return ""
		case current:
			return strings.TrimSpace(start + " – Présent")
		case end == "":
			return start
		case start == "":
			return end
		default:
			return start + " – " + end
		}
	},
	"initials": func(first, last string) string {
		var b strings.Builder
		for _, s := range []string{first, last} {
			if r := []rune(strings.TrimSpace(s)); len(r) > 0 {
				b.WriteString(strings.ToUpper(string(r[0])))
			}
		}
		return b.String()
	},
	"px": func(v float64) string { return fmt.Sprintf("%.1fpx", v) },
	"rem": func(v float64) string { return fmt.Sprintf("%.2frem", v) },
	"css": cssValue,
}

// cssValue passes a style value through unchanged unless it could end the declaration or
// the style element, in which case it is dropped.
func cssValue(v string) template.CSS {
	if strings.ContainsAny(v, ";{}<>\\\n\r") || strings.Contains(v, "/*") {
		return ""
	}
	return template.CSS(v) //nolint:gosec // breakout characters rejected above
}
