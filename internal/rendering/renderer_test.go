package rendering

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCV() *types.DocumentData {
	return &types.DocumentData{
		Kind:      types.KindCV,
		FirstName: "Jean",
		LastName:  "Dupont",
		Email:     "jean@example.com",
		Phone:     "0600000000",
		Title:     "Développeur backend",
		Objective: "Rejoindre une équipe produit exigeante.",
		Experiences: []types.Experience{
			{Position: "Développeur Go", Company: "Acme", StartDate: "2020", Current: true, Description: "API de paiement"},
		},
		Education: []types.Education{{Degree: "Master informatique", School: "ENSIMAG", Year: "2019"}},
		Skills:    []string{"Go", "PostgreSQL"},
		Languages: []types.Language{{Name: "Anglais", Level: "C1"}},
	}
}

func sampleLetter() *types.DocumentData {
	return &types.DocumentData{
		Kind:      types.KindLetter,
		FirstName: "Jean",
		LastName:  "Dupont",
		Company:   "Acme",
		Position:  "Développeur Go",
		City:      "Lyon",
		Pitch:     "Votre annonce a retenu toute mon attention.",
		Body:      "Premier paragraphe.\n\nSecond paragraphe.",
		Closing:   "Je reste à votre disposition.",
	}
}

func renderText(t *testing.T, id string, in Input) string {
	t.Helper()
	r, err := DefaultRegistry().Get(id)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, in))
	text, err := PlainText(buf.String())
	require.NoError(t, err)
	return text
}

func TestRegistry_IDs(t *testing.T) {
	assert.Equal(t, []string{"classic", "creative", "letter", "minimal", "modern"}, DefaultRegistry().IDs())
}

func TestRegistry_UnknownTemplate(t *testing.T) {
	_, err := DefaultRegistry().Get("baroque")
	var tmplErr *TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Contains(t, err.Error(), "baroque")
}

func TestRender_AllCVTemplatesShareInput(t *testing.T) {
	for _, id := range []string{TemplateModern, TemplateClassic, TemplateMinimal, TemplateCreative} {
		t.Run(id, func(t *testing.T) {
			text := renderText(t, id, Input{Document: sampleCV(), Style: style.Default()})

			assert.Contains(t, text, "Jean Dupont")
			assert.Contains(t, text, "Développeur Go · Acme")
			assert.Contains(t, text, "2020 – Présent")
			assert.Contains(t, text, "Master informatique")
			assert.Contains(t, text, "PostgreSQL")
			assert.Contains(t, text, "Anglais · C1")
			assert.Contains(t, text, "Rejoindre une équipe produit exigeante.")
		})
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	doc := sampleCV()
	before := doc.Clone()
	col := sections.DefaultCollection()
	_, err := col.Add(sections.TypeProjects)
	require.NoError(t, err)
	list := col.Sections()
	listBefore := col.Sections()
	st := style.State{PrimaryColor: "#000000"}

	for _, id := range DefaultRegistry().IDs() {
		r, err := DefaultRegistry().Get(id)
		require.NoError(t, err)
		require.NoError(t, r.Render(&bytes.Buffer{}, Input{Document: doc, Style: st, Sections: list}))
	}

	assert.Equal(t, before, doc)
	assert.Equal(t, listBefore, list)
	assert.Equal(t, style.State{PrimaryColor: "#000000"}, st)
}

func TestRender_SectionOrderAndVisibility(t *testing.T) {
	col := sections.DefaultCollection()
	skills := col.OfType(sections.TypeSkills)[0]
	education := col.OfType(sections.TypeEducation)[0]
	col.Reorder(skills.ID, 1)
	col.ToggleVisible(education.ID)

	text := renderText(t, TemplateModern, Input{Document: sampleCV(), Sections: col.Sections()})

	skillsAt := strings.Index(text, "Compétences")
	experienceAt := strings.Index(text, "Expérience professionnelle")
	require.NotEqual(t, -1, skillsAt)
	require.NotEqual(t, -1, experienceAt)
	assert.Less(t, skillsAt, experienceAt)
	assert.NotContains(t, text, "ENSIMAG")
}

func TestRender_SectionPayloadOverridesDocument(t *testing.T) {
	col := sections.DefaultCollection()
	sk := col.OfType(sections.TypeSkills)[0]
	require.NoError(t, col.UpdateData(sk.ID, sections.SkillList{Items: []string{"Kubernetes"}}))

	text := renderText(t, TemplateMinimal, Input{Document: sampleCV(), Sections: col.Sections()})
	assert.Contains(t, text, "Kubernetes")
	assert.NotContains(t, text, "PostgreSQL")
}

func TestRender_ProjectsAddRemove(t *testing.T) {
	col := sections.DefaultCollection()
	p, err := col.Add(sections.TypeProjects)
	require.NoError(t, err)
	require.NoError(t, col.UpdateData(p.ID, sections.ProjectList{Items: []sections.Project{{Title: "Planificateur", Technologies: []string{"Go", "React"}}}}))

	text := renderText(t, TemplateModern, Input{Document: sampleCV(), Sections: col.Sections()})
	assert.Contains(t, text, "Projets")
	assert.Contains(t, text, "Planificateur")
	assert.Contains(t, text, "Go, React")

	col.Remove(p.ID)
	text = renderText(t, TemplateModern, Input{Document: sampleCV(), Sections: col.Sections()})
	assert.NotContains(t, text, "Projets")
	assert.NotContains(t, text, "Planificateur")
}

func TestRender_CustomSectionHeading(t *testing.T) {
	col := sections.NewCollection()
	c, err := col.Add(sections.TypeCustom)
	require.NoError(t, err)
	require.NoError(t, col.UpdateData(c.ID, sections.Custom{Heading: "Conférences", Items: []sections.CustomItem{{Title: "GopherCon"}}}))

	text := renderText(t, TemplateClassic, Input{Document: sampleCV(), Sections: col.Sections()})
	assert.Contains(t, text, "Conférences")
	assert.Contains(t, text, "GopherCon")
	// no personal-info section, no header
	assert.NotContains(t, text, "jean@example.com")
}

func TestRender_Letter(t *testing.T) {
	text := renderText(t, TemplateLetter, Input{Document: sampleLetter()})

	assert.Contains(t, text, "Objet : Candidature au poste de Développeur Go")
	assert.Contains(t, text, "Premier paragraphe. Second paragraphe.")
	assert.Contains(t, text, "Je reste à votre disposition.")
	assert.Contains(t, text, "Lyon")
}

func TestRender_StyleReachesPage(t *testing.T) {
	r, err := DefaultRegistry().Get(TemplateModern)
	require.NoError(t, err)

	var buf bytes.Buffer
	st := style.Default().Apply(style.Patch{PrimaryColor: style.String("#ff0000"), FontScale: style.Float(1.1)})
	require.NoError(t, r.Render(&buf, Input{Document: sampleCV(), Style: st}))

	assert.Contains(t, buf.String(), "#ff0000")
	assert.Contains(t, buf.String(), "15.4px")
}

func TestRender_StyleValuesRenderedAsIs(t *testing.T) {
	r, err := DefaultRegistry().Get(TemplateModern)
	require.NoError(t, err)

	st := style.Default().Apply(style.Patch{
		PrimaryColor:   style.String("rgb(37, 99, 235)"),
		SecondaryColor: style.String("hsl(220 80% 50%)"),
		FontFamily:     style.String("'Open Sans'"),
	})
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Input{Document: sampleCV(), Style: st}))

	out := buf.String()
	assert.Contains(t, out, "--primary: rgb(37, 99, 235);")
	assert.Contains(t, out, "--secondary: hsl(220 80% 50%);")
	assert.Contains(t, out, "--font: 'Open Sans';")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestRender_StyleValueCannotLeaveDeclaration(t *testing.T) {
	r, err := DefaultRegistry().Get(TemplateModern)
	require.NoError(t, err)

	st := style.Default().Apply(style.Patch{PrimaryColor: style.String("red;} body { display: none")})
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Input{Document: sampleCV(), Style: st}))

	assert.NotContains(t, buf.String(), "display: none")
	assert.Contains(t, buf.String(), "--primary: ;")
}

func TestCSSValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#2563eb", "#2563eb"},
		{"rgba(0, 0, 0, 0.5)", "rgba(0, 0, 0, 0.5)"},
		{`"Fira Sans", serif`, `"Fira Sans", serif`},
		{"red; color: blue", ""},
		{"</style><script>", ""},
		{`\7d`, ""},
		{"red /* x", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(cssValue(tt.in)), tt.in)
	}
}

func TestRender_EscapesUserContent(t *testing.T) {
	doc := sampleCV()
	doc.FirstName = "<script>alert(1)</script>"

	r, err := DefaultRegistry().Get(TemplateModern)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Input{Document: doc}))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRender_NilDocument(t *testing.T) {
	r, err := DefaultRegistry().Get(TemplateModern)
	require.NoError(t, err)

	err = r.Render(&bytes.Buffer{}, Input{})
	var renderErr *RenderError
	assert.True(t, errors.As(err, &renderErr))
}

func TestRegistry_For(t *testing.T) {
	reg := DefaultRegistry()

	r, err := reg.For(Input{Document: sampleLetter(), Style: style.Default()})
	require.NoError(t, err)
	assert.Equal(t, TemplateLetter, r.ID())

	r, err = reg.For(Input{Document: sampleCV(), Style: style.State{Template: TemplateCreative}})
	require.NoError(t, err)
	assert.Equal(t, TemplateCreative, r.ID())

	r, err = reg.For(Input{Document: sampleCV()})
	require.NoError(t, err)
	assert.Equal(t, TemplateModern, r.ID())

	_, err = reg.For(Input{Document: sampleCV(), Style: style.State{Template: TemplateLetter}})
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText("<html><head><title>x</title><style>p{}</style></head><body><p>Bonjour</p>\n<p>  le   monde</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour le monde", text)
}
