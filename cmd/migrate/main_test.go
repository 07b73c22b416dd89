package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE cars (id text);
ALTER TABLE cars ADD COLUMN brand text;

-- +migrate Down
DROP TABLE cars;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE cars")
		assert.Contains(t, up, "ALTER TABLE cars")
		assert.NotContains(t, up, "DROP TABLE cars")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE cars")
		assert.NotContains(t, down, "CREATE TABLE cars")
	})
}

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunMigrationsUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	applied := writeMigration(t, dir, "0001_users.sql", "-- +migrate Up\nCREATE TABLE users (id text);")
	pending := writeMigration(t, dir, "0002_cars.sql", "-- +migrate Up\nCREATE TABLE cars (id text);")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("0001_users.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("0002_cars.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE cars").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("0002_cars.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, runMigrationsUp(context.Background(), db, []string{applied, pending}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsUp_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "0001_bad.sql", "-- +migrate Up\nCREATE TABLE broken;")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE broken").
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = runMigrationsUp(context.Background(), db, []string{file})
	assert.ErrorContains(t, err, "0001_bad.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "0002_cars.sql", "-- +migrate Up\nCREATE TABLE cars (id text);\n-- +migrate Down\nDROP TABLE cars;")

	t.Run("RollsBackLatest", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0002_cars.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE cars").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("0002_cars.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsDown(context.Background(), db, []string{file}))
	})

	t.Run("NothingApplied", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		require.NoError(t, runMigrationsDown(context.Background(), db, []string{file}))
	})

	t.Run("MissingFile", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0009_gone.sql"))

		err := runMigrationsDown(context.Background(), db, []string{file})
		assert.ErrorContains(t, err, "0009_gone.sql")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = run(context.Background(), db, "sideways", t.TempDir())
	assert.ErrorContains(t, err, "unknown mode")
}

func TestRun_ShippedMigrationsParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
	}
}
