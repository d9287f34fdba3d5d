package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestPutGetExists(t *testing.T) {
	s := newStore(t)

	key := "owner-1/graph-1-dark-1700000000000.png"
	require.False(t, s.Exists(key))

	require.NoError(t, s.Put(key, []byte("png-bytes")))
	require.True(t, s.Exists(key))

	data, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestRemoveMatchingOnlyTouchesPrefix(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Put("owner/graph-dark-1.png", []byte("a")))
	require.NoError(t, s.Put("owner/graph-dark-2.png", []byte("b")))
	require.NoError(t, s.Put("owner/graph-light-1.png", []byte("c")))
	require.NoError(t, s.Put("owner/other-dark-1.png", []byte("d")))

	removed, err := s.RemoveMatching("owner", "graph-dark-")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, s.Exists("owner/graph-dark-1.png"))
	assert.False(t, s.Exists("owner/graph-dark-2.png"))
	assert.True(t, s.Exists("owner/graph-light-1.png"), "other theme is an independent cache line")
	assert.True(t, s.Exists("owner/other-dark-1.png"))
}

func TestRemoveMatchingMissingDir(t *testing.T) {
	s := newStore(t)
	removed, err := s.RemoveMatching("nobody", "x-")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestList(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Put("owner/graph-dark-1.png", []byte("a")))
	require.NoError(t, s.Put("owner/graph-light-1.png", []byte("b")))

	names, err := s.List("owner", "graph-")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestRejectsTraversal(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.Put("../escape.png", []byte("x")))
	assert.Error(t, s.Put("/abs.png", []byte("x")))
	assert.False(t, s.Exists("../escape.png"))
}
