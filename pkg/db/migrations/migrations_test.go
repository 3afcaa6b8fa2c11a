package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	m := NewEmbeddedMigrator(nil)

	migrations, err := m.LoadMigrations()

	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "linked accounts", migrations[0].Description)
	assert.Equal(t, "003", migrations[2].Version)
}

func TestMigrateUpSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.sql"), []byte("CREATE TABLE a (id INTEGER);"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_second.sql"), []byte("CREATE TABLE b (id INTEGER);"), 0644))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("001"))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO migrations").WithArgs("002", "second").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewMigrator(db, dir).MigrateUp())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMigrationNumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	m := NewMigrator(nil, dir)

	first, err := m.CreateMigration("add index")
	require.NoError(t, err)
	second, err := m.CreateMigration("drop index")
	require.NoError(t, err)

	assert.Equal(t, "001_add_index.sql", filepath.Base(first))
	assert.Equal(t, "002_drop_index.sql", filepath.Base(second))

	_, err = NewEmbeddedMigrator(nil).CreateMigration("nope")
	assert.Error(t, err)
}
