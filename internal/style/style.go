// Package style holds the global visual parameters applied by every template.
package style

// Default values for a new document.
const (
	DefaultPrimaryColor   = "#2563eb"
	DefaultSecondaryColor = "#64748b"
	DefaultFontFamily     = "Inter"
	DefaultTemplate       = "modern"
)

// State is the customization applied uniformly at render time.
// Values are not validated: an invalid color is rendered as given.
type State struct {
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`
	FontFamily     string  `json:"fontFamily"`
	FontScale      float64 `json:"fontSize"`
	PhotoScale     float64 `json:"photoSize"`
	SpacingScale   float64 `json:"spacing"`
	Template       string  `json:"template"`
}

// Default returns the baseline style.
func Default() State {
	return State{
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
		FontFamily:     DefaultFontFamily,
		FontScale:      1,
		PhotoScale:     1,
		SpacingScale:   1,
		Template:       DefaultTemplate,
	}
}

// Patch is a partial update. Nil fields leave the current value untouched.
type Patch struct {
	PrimaryColor   *string  `json:"primaryColor,omitempty"`
	SecondaryColor *string  `json:"secondaryColor,omitempty"`
	FontFamily     *string  `json:"fontFamily,omitempty"`
	FontScale      *float64 `json:"fontSize,omitempty"`
	PhotoScale     *float64 `json:"photoSize,omitempty"`
	SpacingScale   *float64 `json:"spacing,omitempty"`
	Template       *string  `json:"template,omitempty"`
}

// Apply returns s with every non-nil field of p overriding the current value.
func (s State) Apply(p Patch) State {
	if p.PrimaryColor != nil {
		s.PrimaryColor = *p.PrimaryColor
	}
	if p.SecondaryColor != nil {
		s.SecondaryColor = *p.SecondaryColor
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontScale != nil {
		s.FontScale = *p.FontScale
	}
	if p.PhotoScale != nil {
		s.PhotoScale = *p.PhotoScale
	}
	if p.SpacingScale != nil {
		s.SpacingScale = *p.SpacingScale
	}
	if p.Template != nil {
		s.Template = *p.Template
	}
	return s
}

// WithDefaults fills zero-valued fields from Default. Used for documents loaded from files
// that only carry a subset of the style.
func (s State) WithDefaults() State {
	d := Default()
	if s.PrimaryColor == "" {
		s.PrimaryColor = d.PrimaryColor
	}
	if s.SecondaryColor == "" {
		s.SecondaryColor = d.SecondaryColor
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FontScale == 0 {
		s.FontScale = d.FontScale
	}
	if s.PhotoScale == 0 {
		s.PhotoScale = d.PhotoScale
	}
	if s.SpacingScale == 0 {
		s.SpacingScale = d.SpacingScale
	}
	if s.Template == "" {
		s.Template = d.Template
	}
	return s
}

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }
