// Package storage provides per-user persistence for generated documents, drafts and usage counts.
package storage

import (
	"context"
	"time"

	"github.com/jonathan/cv-builder/internal/types"
)

// Document keys. Generated keys hold the latest generated JSON read by the preview page;
// autosave keys hold the in-progress form draft.
const (
	KeyGeneratedCV     = "generated_cv"
	KeyGeneratedLetter = "generated_letter"
	KeyAutosaveCV      = "autosave_cv"
	KeyAutosaveLetter  = "autosave_letter"
)

// GeneratedKey returns the key holding the latest generated document of the given kind.
func GeneratedKey(kind types.Kind) string {
	if kind == types.KindLetter {
		return KeyGeneratedLetter
	}
	return KeyGeneratedCV
}

// AutosaveKey returns the key holding the draft of the given kind.
func AutosaveKey(kind types.Kind) string {
	if kind == types.KindLetter {
		return KeyAutosaveLetter
	}
	return KeyAutosaveCV
}

// ValidKey reports whether key is one of the known document keys.
func ValidKey(key string) bool {
	switch key {
	case KeyGeneratedCV, KeyGeneratedLetter, KeyAutosaveCV, KeyAutosaveLetter:
		return true
	}
	return false
}

// Store persists raw JSON documents by user and key, and counts generations.
// Load returns (nil, nil) when nothing is stored under the key.
type Store interface {
	Save(ctx context.Context, userID, key string, data []byte) error
	Load(ctx context.Context, userID, key string) ([]byte, error)
	Delete(ctx context.Context, userID, key string) error

	RecordGeneration(ctx context.Context, userID string, kind types.Kind) error
	CountGenerations(ctx context.Context, userID string, kind types.Kind, since time.Time) (int, error)

	Close()
}

// StartOfMonth returns midnight UTC on the first day of t's month. Plan quotas are monthly.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
