// Package types provides the document model shared by forms, rendering, generation and storage.
package types

import "strings"

// Kind identifies which document a DocumentData describes.
type Kind string

const (
	// KindCV is a résumé.
	KindCV Kind = "cv"
	// KindLetter is a cover letter.
	KindLetter Kind = "letter"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindCV || k == KindLetter
}

// Experience is one professional experience entry.
type Experience struct {
	Position    string `json:"poste"`
	Company     string `json:"entreprise"`
	Location    string `json:"lieu,omitempty"`
	StartDate   string `json:"dateDebut,omitempty"`
	EndDate     string `json:"dateFin,omitempty"`
	Current     bool   `json:"enCours,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one diploma or training entry.
type Education struct {
	Degree      string `json:"diplome"`
	School      string `json:"etablissement"`
	Location    string `json:"lieu,omitempty"`
	Year        string `json:"anneeObtention,omitempty"`
	Description string `json:"description,omitempty"`
}

// Language is a spoken language with a proficiency level.
type Language struct {
	Name  string `json:"langue"`
	Level string `json:"niveau,omitempty"`
}

// DocumentData is the flat, template-agnostic content of one résumé or cover letter.
// Letters use the identity fields plus the letter block; résumés use the collections.
type DocumentData struct {
	Kind Kind `json:"type,omitempty"`

	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"telephone"`
	Address   string `json:"adresse,omitempty"`
	Title     string `json:"titre,omitempty"`
	PhotoURL  string `json:"photo,omitempty"`

	Objective   string       `json:"objectif,omitempty"`
	Experiences []Experience `json:"experiences,omitempty"`
	Education   []Education  `json:"formations,omitempty"`
	Skills      []string     `json:"competences,omitempty"`
	Languages   []Language   `json:"langues,omitempty"`
	Hobbies     []string     `json:"loisirs,omitempty"`

	Recipient  string `json:"destinataire,omitempty"`
	Company    string `json:"entreprise,omitempty"`
	Position   string `json:"poste,omitempty"`
	Subject    string `json:"objet,omitempty"`
	Pitch      string `json:"accroche,omitempty"`
	Body       string `json:"corps,omitempty"`
	Closing    string `json:"conclusion,omitempty"`
	City       string `json:"ville,omitempty"`
	LetterDate string `json:"date,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (d *DocumentData) FullName() string {
	return strings.TrimSpace(strings.Join([]string{d.FirstName, d.LastName}, " "))
}

// Clone returns a deep copy of d.
func (d *DocumentData) Clone() *DocumentData {
	if d == nil {
		return nil
	}
	c := *d
	c.Experiences = append([]Experience(nil), d.Experiences...)
	c.Education = append([]Education(nil), d.Education...)
	c.Skills = append([]string(nil), d.Skills...)
	c.Languages = append([]Language(nil), d.Languages...)
	c.Hobbies = append([]string(nil), d.Hobbies...)
	return &c
}

// Field tags identify rewritable free-text fields. The rewrite endpoint uses them to pick a tone.
const (
	FieldObjective   = "objectif"
	FieldExperience  = "experience"
	FieldEducation   = "formation"
	FieldPitch       = "accroche"
	FieldBody        = "corps"
	FieldClosing     = "conclusion"
	FieldDescription = "description"
)

// TextField is a pointer to one rewritable string inside a DocumentData.
type TextField struct {
	Tag   string
	Value *string
}

// TextFields lists the free-text fields of d that may be sent to the rewrite gateway.
// Empty fields are skipped. Each returned pointer targets a distinct string.
func (d *DocumentData) TextFields() []TextField {
	var fields []TextField
	add := func(tag string, v *string) {
		if strings.TrimSpace(*v) != "" {
			fields = append(fields, TextField{Tag: tag, Value: v})
		}
	}

	switch d.Kind {
	case KindLetter:
		add(FieldPitch, &d.Pitch)
		add(FieldBody, &d.Body)
		add(FieldClosing, &d.Closing)
	default:
		add(FieldObjective, &d.Objective)
		for i := range d.Experiences {
			add(FieldExperience, &d.Experiences[i].Description)
		}
		for i := range d.Education {
			add(FieldEducation, &d.Education[i].Description)
		}
	}
	return fields
}
