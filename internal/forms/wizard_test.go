package forms

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	calls int
	err   error
}

func (s *stubSubmitter) Generate(_ context.Context, doc *types.DocumentData) (*types.DocumentData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := doc.Clone()
	out.Objective = "Objectif optimisé"
	return out, nil
}

func fillCV(w *Wizard) {
	for k, v := range map[string]string{
		"prenom": "Jean", "nom": "Dupont", "email": "a@b.com", "telephone": "0600000000",
		"poste": "Développeur", "entreprise": "Acme", "dateDebut": "2020",
		"diplome": "Master", "etablissement": "ENSIMAG", "anneeObtention": "2019",
		"competences": "Go, React", "langues": "Anglais:C1, Espagnol",
		"objectif": "Rejoindre une équipe produit",
	} {
		w.Set(k, v)
	}
}

func TestIsStepValid_PersonalInfo(t *testing.T) {
	step := CVFlow().Steps[0]
	require.Equal(t, StepPersonalInfo, step.Title)

	values := Values{"prenom": "", "nom": "Dupont", "email": "a@b.com", "telephone": "0600000000"}
	assert.False(t, IsStepValid(step, values))

	values["prenom"] = "Jean"
	assert.True(t, IsStepValid(step, values))
}

func TestIsStepValid_WhitespaceOnly(t *testing.T) {
	step := CVFlow().Steps[0]
	values := Values{"prenom": "   ", "nom": "Dupont", "email": "a@b.com", "telephone": "\t"}

	assert.False(t, IsStepValid(step, values))
	assert.Equal(t, []string{"prenom", "telephone"}, MissingFields(step, values))
}

func TestWizard_NextGatesOnValidity(t *testing.T) {
	w := NewWizard(CVFlow())
	w.Set("nom", "Dupont")

	err := w.Next()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StepPersonalInfo, ve.Step)
	assert.Equal(t, RequiredMessage, ve.Fields["prenom"])
	assert.NotContains(t, ve.Fields, "nom")
	assert.Equal(t, 0, w.Index())

	fillCV(w)
	require.NoError(t, w.Next())
	assert.Equal(t, 1, w.Index())
	assert.Equal(t, StepExperience, w.Current().Title)

	w.Back()
	w.Back()
	assert.Equal(t, 0, w.Index())
}

func TestWizard_NextStopsAtLastStep(t *testing.T) {
	w := NewWizard(LetterFlow())
	for k, v := range map[string]string{
		"prenom": "Jean", "nom": "Dupont", "email": "a@b.com", "telephone": "06",
		"entreprise": "Acme", "poste": "Développeur", "motivation": "...",
	} {
		w.Set(k, v)
	}
	for range 5 {
		require.NoError(t, w.Next())
	}
	assert.True(t, w.IsLast())
}

func TestToDocument_CV(t *testing.T) {
	w := NewWizard(CVFlow())
	fillCV(w)
	doc := w.Document()

	assert.Equal(t, types.KindCV, doc.Kind)
	assert.Equal(t, "Jean Dupont", doc.FullName())
	require.Len(t, doc.Experiences, 1)
	assert.Equal(t, "Acme", doc.Experiences[0].Company)
	require.Len(t, doc.Education, 1)
	assert.Equal(t, "2019", doc.Education[0].Year)
	assert.Equal(t, []string{"Go", "React"}, doc.Skills)
	assert.Equal(t, []types.Language{{Name: "Anglais", Level: "C1"}, {Name: "Espagnol"}}, doc.Languages)
	assert.Empty(t, doc.Hobbies)
}

func TestToDocument_Letter(t *testing.T) {
	doc := ToDocument(types.KindLetter, Values{"entreprise": "Acme", "poste": "Dev", "motivation": "Je suis motivé"})
	assert.Equal(t, types.KindLetter, doc.Kind)
	assert.Equal(t, "Acme", doc.Company)
	assert.Equal(t, "Je suis motivé", doc.Body)
	assert.Empty(t, doc.Experiences)
}

func TestWizard_AutosaveRestore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	w := NewWizard(CVFlow())
	w.Set("prenom", "Jean")
	require.NoError(t, w.Autosave(ctx, store, "u1"))

	restored := NewWizard(CVFlow())
	found, err := restored.Restore(ctx, store, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Jean", restored.Values()["prenom"])

	letter := NewWizard(LetterFlow())
	found, err = letter.Restore(ctx, store, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWizard_RestoreNullDraft(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "u1", storage.AutosaveKey(types.KindCV), []byte("null")))

	w := NewWizard(CVFlow())
	found, err := w.Restore(ctx, store, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NotPanics(t, func() { w.Set("prenom", "Jean") })
	assert.Equal(t, "Jean", w.Values()["prenom"])
}

func TestWizard_Submit_ClearsDraftAndStoresResult(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sub := &stubSubmitter{}

	w := NewWizard(CVFlow())
	fillCV(w)
	require.NoError(t, w.Autosave(ctx, store, "u1"))

	result, err := w.Submit(ctx, sub, store, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, "Objectif optimisé", result.Objective)

	draft, err := store.Load(ctx, "u1", storage.KeyAutosaveCV)
	require.NoError(t, err)
	assert.Nil(t, draft)

	raw, err := store.Load(ctx, "u1", storage.KeyGeneratedCV)
	require.NoError(t, err)
	var stored types.DocumentData
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "Objectif optimisé", stored.Objective)
}

func TestWizard_Submit_FailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sub := &stubSubmitter{err: errors.New("boom")}

	w := NewWizard(CVFlow())
	fillCV(w)
	require.NoError(t, w.Autosave(ctx, store, "u1"))

	_, err := w.Submit(ctx, sub, store, "u1")
	require.Error(t, err)

	draft, err := store.Load(ctx, "u1", storage.KeyAutosaveCV)
	require.NoError(t, err)
	assert.NotNil(t, draft)
}

func TestWizard_Submit_InvalidNeverCallsSubmitter(t *testing.T) {
	sub := &stubSubmitter{}
	w := NewWizard(CVFlow())
	w.Set("prenom", "Jean")

	_, err := w.Submit(context.Background(), sub, storage.NewMemoryStore(), "u1")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, sub.calls)
}
