package sqlitedb

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesParentDir(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "app.db")
	db, err := Open(dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"002_add.sql":  {Data: []byte(`ALTER TABLE things ADD COLUMN extra TEXT;`)},
		"001_init.sql": {Data: []byte(`CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT);`)},
		"readme.md":    {Data: []byte(`not a migration`)},
	}
	require.NoError(t, Migrate(db, "test", fsys, zerolog.Nop()))
	require.NoError(t, Migrate(db, "test", fsys, zerolog.Nop()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)

	_, err = db.Exec(`INSERT INTO things(name, extra) VALUES ('a', 'b')`)
	require.NoError(t, err)
}

func TestMigrateRollsBackFailedFile(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_bad.sql": {Data: []byte(`CREATE TABLE ok (id INTEGER); CREATE TABLE broken (;`)},
	}
	require.Error(t, Migrate(db, "test", fsys, zerolog.Nop()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}
