package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCV() *DocumentData {
	return &DocumentData{
		Kind:      KindCV,
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "jean@example.com",
		Objective: "Développeur full-stack",
		Experiences: []Experience{
			{Position: "Développeur", Company: "Acme", Description: "API Go"},
			{Position: "Stagiaire", Company: "Initech"},
		},
		Education: []Education{{Degree: "Master", School: "ENSIMAG", Description: "Systèmes"}},
		Skills:    []string{"Go", "React"},
	}
}

func TestDocumentData_FullName(t *testing.T) {
	d := &DocumentData{FirstName: "Jean", LastName: "Dupont"}
	assert.Equal(t, "Jean Dupont", d.FullName())

	d.FirstName = ""
	assert.Equal(t, "Dupont", d.FullName())
}

func TestDocumentData_Clone_IsDeep(t *testing.T) {
	orig := sampleCV()
	c := orig.Clone()
	require.Equal(t, orig, c)

	c.Experiences[0].Description = "changed"
	c.Skills[0] = "Rust"

	assert.Equal(t, "API Go", orig.Experiences[0].Description)
	assert.Equal(t, "Go", orig.Skills[0])
}

func TestDocumentData_TextFields_CV(t *testing.T) {
	d := sampleCV()
	fields := d.TextFields()

	// objective + one non-empty experience + one education
	require.Len(t, fields, 3)
	assert.Equal(t, FieldObjective, fields[0].Tag)
	assert.Equal(t, FieldExperience, fields[1].Tag)
	assert.Equal(t, FieldEducation, fields[2].Tag)

	*fields[1].Value = "rewritten"
	assert.Equal(t, "rewritten", d.Experiences[0].Description)
	assert.Empty(t, d.Experiences[1].Description)
}

func TestDocumentData_TextFields_Letter(t *testing.T) {
	d := &DocumentData{Kind: KindLetter, Pitch: "Bonjour", Body: "  ", Closing: "Cordialement"}
	fields := d.TextFields()

	require.Len(t, fields, 2)
	assert.Equal(t, FieldPitch, fields[0].Tag)
	assert.Equal(t, FieldClosing, fields[1].Tag)
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, KindCV.Valid())
	assert.True(t, KindLetter.Valid())
	assert.False(t, Kind("memo").Valid())
}
