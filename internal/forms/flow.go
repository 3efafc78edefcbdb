// Package forms implements the multi-step input flows that produce a DocumentData.
package forms

import (
	"strings"

	"github.com/jonathan/cv-builder/internal/types"
)

// Values holds the flat field values of a form, keyed by field name.
type Values map[string]string

// Get returns the trimmed value of field.
func (v Values) Get(field string) string {
	return strings.TrimSpace(v[field])
}

// Step is one page of a multi-step form.
type Step struct {
	Title    string   `json:"title"`
	Fields   []string `json:"fields"`
	Required []string `json:"required"`
}

// Flow is an ordered list of steps producing one kind of document.
type Flow struct {
	Kind  types.Kind `json:"kind"`
	Steps []Step     `json:"steps"`
}

// Step titles.
const (
	StepPersonalInfo = "Informations personnelles"
	StepExperience   = "Expérience professionnelle"
	StepEducation    = "Formation"
	StepSkills       = "Compétences"
	StepObjective    = "Objectif"
	StepRecipient    = "Destinataire"
	StepContent      = "Contenu"
)

var personalInfoStep = Step{
	Title:    StepPersonalInfo,
	Fields:   []string{"prenom", "nom", "email", "telephone", "adresse", "titre", "photo"},
	Required: []string{"prenom", "nom", "email", "telephone"},
}

// CVFlow returns the résumé flow.
func CVFlow() Flow {
	return Flow{
		Kind: types.KindCV,
		Steps: []Step{
			personalInfoStep,
			{
				Title:    StepExperience,
				Fields:   []string{"poste", "entreprise", "lieu", "dateDebut", "dateFin", "descriptionPoste"},
				Required: []string{"poste", "entreprise", "dateDebut"},
			},
			{
				Title:    StepEducation,
				Fields:   []string{"diplome", "etablissement", "anneeObtention", "descriptionFormation"},
				Required: []string{"diplome", "etablissement", "anneeObtention"},
			},
			{
				Title:    StepSkills,
				Fields:   []string{"competences", "langues", "loisirs"},
				Required: []string{"competences"},
			},
			{
				Title:    StepObjective,
				Fields:   []string{"objectif"},
				Required: []string{"objectif"},
			},
		},
	}
}

// LetterFlow returns the cover-letter flow.
func LetterFlow() Flow {
	return Flow{
		Kind: types.KindLetter,
		Steps: []Step{
			personalInfoStep,
			{
				Title:    StepRecipient,
				Fields:   []string{"destinataire", "entreprise", "poste", "ville"},
				Required: []string{"entreprise", "poste"},
			},
			{
				Title:    StepContent,
				Fields:   []string{"objet", "accroche", "motivation", "conclusion"},
				Required: []string{"motivation"},
			},
		},
	}
}

// FlowFor returns the flow of the given kind.
func FlowFor(kind types.Kind) Flow {
	if kind == types.KindLetter {
		return LetterFlow()
	}
	return CVFlow()
}

// MissingFields returns the required fields of step that are empty or whitespace-only.
func MissingFields(step Step, values Values) []string {
	var missing []string
	for _, f := range step.Required {
		if values.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// IsStepValid reports whether every required field of step has non-whitespace content.
func IsStepValid(step Step, values Values) bool {
	return len(MissingFields(step, values)) == 0
}

// ToDocument maps flat form values onto a DocumentData of the flow's kind.
func ToDocument(kind types.Kind, values Values) *types.DocumentData {
	doc := &types.DocumentData{
		Kind:      kind,
		FirstName: values.Get("prenom"),
		LastName:  values.Get("nom"),
		Email:     values.Get("email"),
		Phone:     values.Get("telephone"),
		Address:   values.Get("adresse"),
		Title:     values.Get("titre"),
		PhotoURL:  values.Get("photo"),
	}

	if kind == types.KindLetter {
		doc.Recipient = values.Get("destinataire")
		doc.Company = values.Get("entreprise")
		doc.Position = values.Get("poste")
		doc.City = values.Get("ville")
		doc.Subject = values.Get("objet")
		doc.Pitch = values.Get("accroche")
		doc.Body = values.Get("motivation")
		doc.Closing = values.Get("conclusion")
		return doc
	}

	doc.Objective = values.Get("objectif")
	if values.Get("poste") != "" || values.Get("entreprise") != "" {
		doc.Experiences = []types.Experience{{
			Position:    values.Get("poste"),
			Company:     values.Get("entreprise"),
			Location:    values.Get("lieu"),
			StartDate:   values.Get("dateDebut"),
			EndDate:     values.Get("dateFin"),
			Description: values.Get("descriptionPoste"),
		}}
	}
	if values.Get("diplome") != "" || values.Get("etablissement") != "" {
		doc.Education = []types.Education{{
			Degree:      values.Get("diplome"),
			School:      values.Get("etablissement"),
			Year:        values.Get("anneeObtention"),
			Description: values.Get("descriptionFormation"),
		}}
	}
	doc.Skills = splitList(values.Get("competences"))
	doc.Hobbies = splitList(values.Get("loisirs"))
	for _, l := range splitList(values.Get("langues")) {
		name, level, _ := strings.Cut(l, ":")
		doc.Languages = append(doc.Languages, types.Language{
			Name:  strings.TrimSpace(name),
			Level: strings.TrimSpace(level),
		})
	}
	return doc
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
