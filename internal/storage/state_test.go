package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/kdwatch/internal/domain"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	states, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	states := map[string]*domain.SymbolState{
		"2330.TW": {
			Position:  domain.PositionLong,
			Alerts:    map[string]bool{"daily_exit@2024-03-08": true},
			LastEntry: "2024-02-01 00:00",
		},
	}
	require.NoError(t, store.Save(states))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "2330.TW")

	got := loaded["2330.TW"]
	assert.Equal(t, domain.PositionLong, got.Position)
	assert.True(t, got.Alerted("daily_exit@2024-03-08"))
	assert.False(t, got.Alerted("weekly_off@2024-03-08"))
	assert.Equal(t, "2024-02-01 00:00", got.LastEntry)
}

func TestFileStore_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(map[string]*domain.SymbolState{
		"2330.TW": {Position: domain.PositionLong, Alerts: map[string]bool{}},
	}))
	require.NoError(t, store.Save(map[string]*domain.SymbolState{
		"2330.TW": {Position: domain.PositionFlat, Alerts: map[string]bool{}},
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.PositionFlat, loaded["2330.TW"].Position)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	store := NewFileStore(path)
	_, err := store.Load()
	assert.Error(t, err)
}
