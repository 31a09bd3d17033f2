package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "s1", "filename")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "s1", "filename", []byte(`"syllabus.pdf"`)))
			got, ok, err := s.Get(ctx, "s1", "filename")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `"syllabus.pdf"`, string(got))
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "s1", "inventory", []byte("first")))
			require.NoError(t, s.Put(ctx, "s1", "inventory", []byte("second")))
			got, ok, err := s.Get(ctx, "s1", "inventory")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "second", string(got))
		})
	}
}

func TestStore_SessionsIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "a", "k", []byte("A")))
			require.NoError(t, s.Put(ctx, "b", "k", []byte("B")))

			require.NoError(t, s.Delete(ctx, "a"))

			_, ok, err := s.Get(ctx, "a", "k")
			require.NoError(t, err)
			assert.False(t, ok)

			got, ok, err := s.Get(ctx, "b", "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "B", string(got))
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte("abc")
	require.NoError(t, s.Put(ctx, "s", "k", v))
	v[0] = 'x'

	got, _, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "s1", "filename", []byte("x.txt")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get(ctx, "s1", "filename")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x.txt", string(got))
}
