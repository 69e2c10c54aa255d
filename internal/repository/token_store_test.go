package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todo_client/internal/domain"
	"todo_client/pkg/db"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s domain.TokenStore) {
	t.Helper()

	got, err := s.Get()
	require.NoError(t, err)
	assert.Empty(t, got, "fresh store must be empty")

	require.NoError(t, s.Set("abc.def.ghi"))
	got, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)

	require.NoError(t, s.Set("second"))
	got, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, s.Clear())
	got, err = s.Get()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Clear(), "clearing an empty store is fine")
}

func TestMemoryTokenStore(t *testing.T) {
	exerciseStore(t, NewMemoryTokenStore())
}

func TestFileTokenStore(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	exerciseStore(t, NewFileTokenStore(path, logger))
}

func TestFileTokenStore_PersistsAcrossInstances(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "token.json")

	require.NoError(t, NewFileTokenStore(path, logger).Set("persisted"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := NewFileTokenStore(path, logger).Get()
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestFileTokenStore_CorruptFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileTokenStore(path, logger)
	_, err := s.Get()
	assert.Error(t, err)

	require.NoError(t, s.Clear())
	got, err := s.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteTokenStore(t *testing.T) {
	logger, _ := test.NewNullLogger()
	database, err := db.Connect(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	defer database.Close()

	s, err := NewSQLiteTokenStore(database, logger)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSealedTokenStore(t *testing.T) {
	inner := NewMemoryTokenStore()
	s := NewSealedTokenStore(inner, "correct horse")
	exerciseStore(t, s)

	require.NoError(t, s.Set("secret-token"))
	raw, err := inner.Get()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, sealedPrefix))
	assert.NotContains(t, raw, "secret-token")

	other := NewSealedTokenStore(inner, "wrong passphrase")
	_, err = other.Get()
	assert.ErrorIs(t, err, ErrTokenTampered)

	require.NoError(t, inner.Set("plain-token"))
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrTokenTampered)
}
