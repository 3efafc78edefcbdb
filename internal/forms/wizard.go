package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// RequiredMessage is shown inline next to an empty required field.
const RequiredMessage = "Ce champ est requis"

// ErrSubmitInProgress is returned when Submit is called while a submission is in flight.
var ErrSubmitInProgress = errors.New("submission already in progress")

// ValidationError lists the invalid fields of one step, keyed by field name.
type ValidationError struct {
	Step   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation error: %s - missing %s", e.Step, strings.Join(names, ", "))
}

// DraftStore is the part of storage used by the form layer.
type DraftStore interface {
	Save(ctx context.Context, userID, key string, data []byte) error
	Load(ctx context.Context, userID, key string) ([]byte, error)
	Delete(ctx context.Context, userID, key string) error
}

// Submitter sends a completed document to the generation endpoint and returns the result.
type Submitter interface {
	Generate(ctx context.Context, doc *types.DocumentData) (*types.DocumentData, error)
}

// Wizard walks a Flow step by step. It is owned by a single form session.
type Wizard struct {
	flow       Flow
	current    int
	values     Values
	submitting atomic.Bool
}

// NewWizard starts flow at its first step with no values.
func NewWizard(flow Flow) *Wizard {
	return &Wizard{flow: flow, values: Values{}}
}

// Flow returns the wizard's flow.
func (w *Wizard) Flow() Flow { return w.flow }

// Set updates one field value.
func (w *Wizard) Set(field, value string) {
	w.values[field] = value
}

// Values returns a copy of the current values.
func (w *Wizard) Values() Values {
	out := make(Values, len(w.values))
	for k, v := range w.values {
		out[k] = v
	}
	return out
}

// Index returns the current step index.
func (w *Wizard) Index() int { return w.current }

// Current returns the current step.
func (w *Wizard) Current() Step { return w.flow.Steps[w.current] }

// IsLast reports whether the current step is the final one.
func (w *Wizard) IsLast() bool { return w.current == len(w.flow.Steps)-1 }

// Validate checks the current step.
func (w *Wizard) Validate() error {
	return validateStep(w.Current(), w.values)
}

// Next advances to the following step when the current one is valid.
func (w *Wizard) Next() error {
	if err := w.Validate(); err != nil {
		return err
	}
	if !w.IsLast() {
		w.current++
	}
	return nil
}

// Back returns to the previous step. Going back never validates.
func (w *Wizard) Back() {
	if w.current > 0 {
		w.current--
	}
}

// Document builds the DocumentData from the current values.
func (w *Wizard) Document() *types.DocumentData {
	return ToDocument(w.flow.Kind, w.values)
}

// Autosave writes the current values as the draft of the flow's kind.
func (w *Wizard) Autosave(ctx context.Context, store DraftStore, userID string) error {
	data, err := json.Marshal(w.values)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return store.Save(ctx, userID, storage.AutosaveKey(w.flow.Kind), data)
}

// Restore loads a previously saved draft. It reports whether a draft was found.
func (w *Wizard) Restore(ctx context.Context, store DraftStore, userID string) (bool, error) {
	data, err := store.Load(ctx, userID, storage.AutosaveKey(w.flow.Kind))
	if err != nil || data == nil {
		return false, err
	}
	var values Values
	if err := json.Unmarshal(data, &values); err != nil {
		return false, fmt.Errorf("failed to decode draft: %w", err)
	}
	// A stored JSON null is not a draft.
	if values == nil {
		return false, nil
	}
	w.values = values
	return true, nil
}

// Submit validates every step, sends the document once and, on success, stores the result under
// the generated key and clears the draft. Storage failures after a successful generation are
// returned but the generated document is still returned to the caller.
func (w *Wizard) Submit(ctx context.Context, submitter Submitter, store DraftStore, userID string) (*types.DocumentData, error) {
	for _, step := range w.flow.Steps {
		if err := validateStep(step, w.values); err != nil {
			return nil, err
		}
	}

	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer w.submitting.Store(false)

	result, err := submitter.Generate(ctx, w.Document())
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return result, fmt.Errorf("failed to encode generated document: %w", err)
	}
	if err := store.Save(ctx, userID, storage.GeneratedKey(w.flow.Kind), data); err != nil {
		return result, err
	}
	if err := store.Delete(ctx, userID, storage.AutosaveKey(w.flow.Kind)); err != nil {
		return result, err
	}
	return result, nil
}

func validateStep(step Step, values Values) error {
	missing := MissingFields(step, values)
	if len(missing) == 0 {
		return nil
	}
	fields := make(map[string]string, len(missing))
	for _, f := range missing {
		fields[f] = RequiredMessage
	}
	return &ValidationError{Step: step.Title, Fields: fields}
}
