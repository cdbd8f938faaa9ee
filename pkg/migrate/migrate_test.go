package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/001_create_lenses.up.sql":   {Data: []byte(`CREATE TABLE lenses (id INTEGER PRIMARY KEY, family TEXT);`)},
		"migrations/001_create_lenses.down.sql": {Data: []byte(`DROP TABLE lenses;`)},
		"migrations/002_add_radius.up.sql":      {Data: []byte(`ALTER TABLE lenses ADD COLUMN radius REAL;`)},
		"migrations/002_add_radius.down.sql":    {Data: []byte(`ALTER TABLE lenses DROP COLUMN radius;`)},
		"migrations/README.md":                  {Data: []byte("ignored")},
	}
}

func openDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testFS(), "").GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create lenses", migrations[0].Name)
	assert.Contains(t, migrations[0].Up, "CREATE TABLE")
	assert.Contains(t, migrations[0].Down, "DROP TABLE")
	assert.Equal(t, 2, migrations[1].Version)
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "lens_migrations"))

	pending, err := m.GetPendingMigrations()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, m.MigrateUp())
	v, err := m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = db.Exec(`INSERT INTO lenses (family, radius) VALUES ('A', 7.5)`)
	require.NoError(t, err)

	// Applying again is a no-op
	require.NoError(t, m.MigrateUp())

	require.NoError(t, m.MigrateTo(1))
	v, err = m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, err = db.Exec(`INSERT INTO lenses (family, radius) VALUES ('A', 7.5)`)
	assert.Error(t, err, "radius column is gone")

	require.NoError(t, m.MigrateTo(0))
	v, err = m.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestSeparateMigrationTables(t *testing.T) {
	db := openDB(t)
	other := fstest.MapFS{
		"001_create_configs.up.sql":   {Data: []byte(`CREATE TABLE configs (id INTEGER PRIMARY KEY);`)},
		"001_create_configs.down.sql": {Data: []byte(`DROP TABLE configs;`)},
	}

	require.NoError(t, NewMigrator(db, NewFSProvider(testFS(), "lens_migrations")).MigrateUp())
	require.NoError(t, NewMigrator(db, NewFSProvider(other, "config_migrations")).MigrateUp())

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('lenses', 'configs')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMissingDownMigration(t *testing.T) {
	db := openDB(t)
	fsys := fstest.MapFS{
		"001_only_up.up.sql": {Data: []byte(`CREATE TABLE t (id INTEGER);`)},
	}
	m := NewMigrator(db, NewFSProvider(fsys, ""))
	require.NoError(t, m.MigrateUp())
	assert.Error(t, m.MigrateTo(0))
}
