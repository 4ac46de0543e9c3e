package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-directory/migrations"
	"github.com/goliatone/go-directory/migrations/migrationstest"
)

func TestMigrationsApplyToSQLite(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	require.NoError(t, migrationstest.Apply(ctx, db, migrations.DialectSQLite))
	// repeat runs are harmless
	require.NoError(t, migrationstest.Apply(ctx, db, migrations.DialectSQLite))

	for _, table := range []string{
		"directory_counter",
		"directory_profiles",
		"directory_usernames",
		"directory_stats",
		"directory_activity",
	} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}
}

func TestUpFilesSeparatesDialects(t *testing.T) {
	t.Parallel()

	postgres, err := migrations.UpFiles(migrations.DialectPostgres)
	require.NoError(t, err)
	sqlite, err := migrations.UpFiles(migrations.DialectSQLite)
	require.NoError(t, err)

	require.Len(t, postgres, 2)
	require.Len(t, sqlite, 2)
	require.Equal(t, "00001_directory_state.up.sql", postgres[0].Name)
	require.Equal(t, "sqlite/00001_directory_state.up.sql", sqlite[0].Name)
	require.Contains(t, postgres[1].SQL, "JSONB")
	require.NotContains(t, sqlite[1].SQL, "JSONB")
}

func TestStatementsDropsComments(t *testing.T) {
	t.Parallel()

	script := "-- header\nCREATE TABLE a (id INT);\n\nCREATE TABLE b (\n  id INT\n);\n"
	require.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b ( id INT )"}, migrationstest.SplitStatements(script))
}
