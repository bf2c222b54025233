package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runDatabaseSuite(t *testing.T, db Database) {
	t.Helper()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))
	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))
	value, err = db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, has)
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting a missing key is a no-op.
	require.NoError(t, db.Delete([]byte("never")))
}

func TestMemDB(t *testing.T) {
	runDatabaseSuite(t, NewMemDB())
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()

	runDatabaseSuite(t, db)
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	db, err := NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("durable"), []byte("yes")))
	db.Close()

	db, err = NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()
	value, err := db.Get([]byte("durable"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), value)

	if _, err := db.Get([]byte("gone")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
