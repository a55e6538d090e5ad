package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverFor(t *testing.T) {
	assert.Equal(t, DriverPostgres, DriverFor("postgres://u:p@localhost:5432/docs"))
	assert.Equal(t, DriverPostgres, DriverFor("postgresql://localhost/docs"))
	assert.Equal(t, DriverSQLite, DriverFor("./data/documents.db"))
	assert.Equal(t, DriverSQLite, DriverFor("sqlite://data/documents.db"))
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "documents.db")

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, RunMigrations(conn))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(conn))

	var count int
	require.NoError(t, conn.Get(&count, `SELECT COUNT(*) FROM documents`))
	assert.Zero(t, count)
}
