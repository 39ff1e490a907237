package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "selection.toml")
	s := NewFileStore(path)

	// Missing file reads as no selection.
	_, set, err := s.Load()
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, s.Save(7))
	id, set, err := s.Load()
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, int64(7), id)

	require.NoError(t, s.Clear())
	_, set, err = s.Load()
	require.NoError(t, err)
	assert.False(t, set)

	// Clearing twice is fine.
	require.NoError(t, s.Clear())
}

func TestFileStoreCorruptValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.toml")
	require.NoError(t, os.WriteFile(path, []byte("selected_actor_id = \"not-a-number\"\n"), 0o644))

	s := NewFileStore(path)
	_, set, err := s.Load()
	require.NoError(t, err)
	assert.False(t, set, "corrupt value behaves like no selection")

	// The next save overwrites it.
	require.NoError(t, s.Save(3))
	id, set, err := s.Load()
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, int64(3), id)
}
