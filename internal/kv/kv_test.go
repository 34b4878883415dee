package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest exercises the Store contract against any implementation.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save("snapshots/state", []byte("v1")))
	got, err := s.Load("snapshots/state")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// Overwrite.
	require.NoError(t, s.Save("snapshots/state", []byte("v2")))
	got, err = s.Load("snapshots/state")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// Prefix listing.
	require.NoError(t, s.Save("history/global", []byte("g")))
	require.NoError(t, s.Save("history/node-a", []byte("a")))
	keys, err := s.Keys("history/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"history/global", "history/node-a"}, keys)

	// Delete, including a key that does not exist.
	require.NoError(t, s.Delete("history/node-a"))
	require.NoError(t, s.Delete("history/node-a"))
	_, err = s.Load("history/node-a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Sync())
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer s.Close()
	storeUnderTest(t, s)
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir, nil)
	require.NoError(t, err)

	require.NoError(t, s.Save("k", []byte("persisted")))
	require.NoError(t, s.Close())

	// Reopen and verify the value survived.
	s, err = OpenBadger(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	_, err := OpenBadger("", nil)
	assert.Error(t, err)
}
