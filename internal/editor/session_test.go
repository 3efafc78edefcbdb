package editor

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()

	snap, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, style.Default(), snap.Style)
	assert.Len(t, snap.Sections, len(sections.DefaultRegistry().Builtin()))

	got, err := m.Get("u1", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = m.Get("u2", snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Create("u1", types.Kind("resume"))
	assert.Error(t, err)
}

func TestManager_SectionOperations(t *testing.T) {
	m := NewManager()
	snap, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)

	snap, err = m.AddSection("u1", snap.ID, sections.TypeProjects)
	require.NoError(t, err)
	projects := snap.Sections[len(snap.Sections)-1]
	assert.Equal(t, sections.TypeProjects, projects.Type)

	snap, err = m.MoveSection("u1", snap.ID, projects.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, projects.ID, snap.Sections[0].ID)
	assert.Equal(t, 0, snap.Sections[0].Order)

	snap, err = m.ToggleSection("u1", snap.ID, projects.ID)
	require.NoError(t, err)
	assert.False(t, snap.Sections[0].Visible)

	raw := json.RawMessage(`{"items":[{"title":"Planificateur"}]}`)
	snap, err = m.UpdateSection("u1", snap.ID, projects.ID, raw)
	require.NoError(t, err)
	assert.Equal(t, sections.ProjectList{Items: []sections.Project{{Title: "Planificateur"}}}, snap.Sections[0].Data)

	before := len(snap.Sections)
	snap, err = m.RemoveSection("u1", snap.ID, projects.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Sections, before-1)
	for _, s := range snap.Sections {
		assert.NotEqual(t, sections.TypeProjects, s.Type)
	}

	_, err = m.ToggleSection("u1", snap.ID, projects.ID)
	assert.ErrorIs(t, err, ErrSectionNotFound)

	_, err = m.AddSection("u1", snap.ID, sections.Type("portfolio"))
	assert.True(t, sections.IsUnknownType(err))
}

func TestManager_UpdateSectionBadPayload(t *testing.T) {
	m := NewManager()
	snap, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)

	_, err = m.UpdateSection("u1", snap.ID, snap.Sections[1].ID, json.RawMessage(`{"items":"x"}`))
	assert.Error(t, err)
}

func TestManager_DocumentAndStyle(t *testing.T) {
	m := NewManager()
	snap, err := m.Create("u1", types.KindLetter)
	require.NoError(t, err)

	doc := &types.DocumentData{Kind: types.KindCV, FirstName: "Jean"}
	snap, err = m.SetDocument("u1", snap.ID, doc)
	require.NoError(t, err)
	assert.Equal(t, types.KindLetter, snap.Document.Kind)
	assert.Equal(t, types.KindCV, doc.Kind)

	snap, err = m.ApplyStyle("u1", snap.ID, style.Patch{PrimaryColor: style.String("#111111")})
	require.NoError(t, err)
	assert.Equal(t, "#111111", snap.Style.PrimaryColor)
	assert.Equal(t, style.DefaultFontFamily, snap.Style.FontFamily)

	in := snap.Input()
	assert.Equal(t, "Jean", in.Document.FirstName)
}

func TestManager_ApplyStyleTemplateMustMatchKind(t *testing.T) {
	m := NewManager()
	cv, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)
	letter, err := m.Create("u1", types.KindLetter)
	require.NoError(t, err)

	_, err = m.ApplyStyle("u1", cv.ID, style.Patch{Template: style.String(rendering.TemplateLetter)})
	assert.ErrorIs(t, err, ErrTemplateKind)
	_, err = m.ApplyStyle("u1", letter.ID, style.Patch{Template: style.String(rendering.TemplateModern)})
	assert.ErrorIs(t, err, ErrTemplateKind)

	got, err := m.Get("u1", cv.ID)
	require.NoError(t, err)
	assert.Equal(t, style.DefaultTemplate, got.Style.Template, "rejected patch leaves the style untouched")

	snap, err := m.ApplyStyle("u1", cv.ID, style.Patch{Template: style.String(rendering.TemplateCreative)})
	require.NoError(t, err)
	assert.Equal(t, rendering.TemplateCreative, snap.Style.Template)

	snap, err = m.ApplyStyle("u1", letter.ID, style.Patch{Template: style.String(rendering.TemplateLetter), PrimaryColor: style.String("#000000")})
	require.NoError(t, err)
	assert.Equal(t, "#000000", snap.Style.PrimaryColor)
}

func TestManager_SnapshotIsIsolated(t *testing.T) {
	m := NewManager()
	snap, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)

	snap.Document.FirstName = "Mutated"
	snap.Sections[0].Visible = false

	got, err := m.Get("u1", snap.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Document.FirstName)
	assert.True(t, got.Sections[0].Visible)
}

func TestManager_DeleteAndPrune(t *testing.T) {
	m := NewManager()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	a, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)
	b, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Delete("u2", a.ID), ErrSessionNotFound)
	require.NoError(t, m.Delete("u1", a.ID))
	assert.Equal(t, 1, m.Len())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Prune(time.Hour))
	_, err = m.Get("u1", b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_ConcurrentEdits(t *testing.T) {
	m := NewManager()
	snap, err := m.Create("u1", types.KindCV)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.AddSection("u1", snap.ID, sections.TypeCustom)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get("u1", snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Sections, len(snap.Sections)+20)
}
