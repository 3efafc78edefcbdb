package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data, err := s.Load(ctx, "u1", KeyGeneratedCV)
	require.NoError(t, err)
	assert.Nil(t, data)

	payload := []byte(`{"prenom":"Jean"}`)
	require.NoError(t, s.Save(ctx, "u1", KeyGeneratedCV, payload))
	payload[2] = 'X' // caller mutation must not leak into the store

	data, err = s.Load(ctx, "u1", KeyGeneratedCV)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prenom":"Jean"}`, string(data))

	// other users are isolated
	other, err := s.Load(ctx, "u2", KeyGeneratedCV)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, s.Delete(ctx, "u1", KeyGeneratedCV))
	data, err = s.Load(ctx, "u1", KeyGeneratedCV)
	require.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, s.Delete(ctx, "nobody", KeyAutosaveCV))
}

func TestMemoryStore_CountGenerations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now.AddDate(0, -1, 0) }
	require.NoError(t, s.RecordGeneration(ctx, "u1", types.KindCV))

	s.now = func() time.Time { return now }
	require.NoError(t, s.RecordGeneration(ctx, "u1", types.KindCV))
	require.NoError(t, s.RecordGeneration(ctx, "u1", types.KindCV))
	require.NoError(t, s.RecordGeneration(ctx, "u1", types.KindLetter))

	n, err := s.CountGenerations(ctx, "u1", types.KindCV, StartOfMonth(now))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountGenerations(ctx, "u1", types.KindLetter, StartOfMonth(now))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, KeyGeneratedCV, GeneratedKey(types.KindCV))
	assert.Equal(t, KeyGeneratedLetter, GeneratedKey(types.KindLetter))
	assert.Equal(t, KeyAutosaveCV, AutosaveKey(types.KindCV))
	assert.Equal(t, KeyAutosaveLetter, AutosaveKey(types.KindLetter))

	assert.True(t, ValidKey(KeyAutosaveLetter))
	assert.False(t, ValidKey("../etc/passwd"))
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)
}
