package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), DirName, FileName)
	store := NewFileStore(path)

	t.Run("empty store has no session", func(t *testing.T) {
		_, ok := store.Get()
		assert.False(t, ok)
	})

	t.Run("set persists across instances", func(t *testing.T) {
		require.NoError(t, store.Set("tok1", "alice"))

		sess, ok := NewFileStore(path).Get()
		require.True(t, ok)
		assert.Equal(t, "tok1", sess.Token)
		assert.Equal(t, "alice", sess.Username)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("set without username drops the old one", func(t *testing.T) {
		require.NoError(t, store.Set("tok2", ""))
		sess, ok := store.Get()
		require.True(t, ok)
		assert.Equal(t, "tok2", sess.Token)
		assert.Empty(t, sess.Username)
	})

	t.Run("clear removes the file", func(t *testing.T) {
		require.NoError(t, store.Clear())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
		_, ok := store.Get()
		assert.False(t, ok)

		// clearing twice is fine
		require.NoError(t, store.Clear())
	})
}

func TestFileStoreIgnoresGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(":\tnot yaml ["), 0o600))

	_, ok := NewFileStore(path).Get()
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, store.Set("abc", "bob"))
	sess, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, Session{Token: "abc", Username: "bob"}, sess)

	require.NoError(t, store.Clear())
	_, ok = store.Get()
	assert.False(t, ok)
}
