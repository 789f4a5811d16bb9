// Package testutil holds helpers shared by the Postgres-backed tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// OpenDB connects to TEST_DATABASE_URL, applies scripts/init.sql and empties
// every table. The test is skipped when the variable is unset.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(schemaPath())
	require.NoError(t, err, "read init.sql")

	_, err = db.Exec(string(schema))
	require.NoError(t, err, "apply init.sql")

	_, err = db.Exec(`TRUNCATE outbox_events, notifications, penalties, favorites, loans, books`)
	require.NoError(t, err, "truncate tables")

	return db
}

func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "scripts", "init.sql")
}
