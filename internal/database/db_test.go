package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDatabaseAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := New(Config{Path: path, Name: "history"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "history", db.Name())
	assert.Equal(t, path, db.Path())

	_, err = db.Conn().Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
}

func TestNew_InMemoryURI(t *testing.T) {
	db, err := New(Config{Path: "file::memory:", Name: "test"})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Conn().Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
}

func TestNameAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	db, err := New(Config{Path: path, Name: "history"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "history", db.Name())
	assert.Equal(t, path, db.Path())
}
