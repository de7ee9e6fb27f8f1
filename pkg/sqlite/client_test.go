package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientInMemory(t *testing.T) {
	c, err := NewClient(":memory:")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Health(ctx))
	require.NoError(t, c.InitSchema(ctx, []string{
		`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`,
		`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`,
	}))

	_, err = c.DB().ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1")
	require.NoError(t, err)

	var v string
	require.NoError(t, c.DB().QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, "a").Scan(&v))
	assert.Equal(t, "1", v)
}

func TestClientFileUsesWAL(t *testing.T) {
	c, err := NewClient(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer c.Close()

	var mode string
	require.NoError(t, c.DB().QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestClientRequiresPath(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestInitSchemaReportsBadDDL(t *testing.T) {
	c, err := NewClient(":memory:")
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.InitSchema(context.Background(), []string{"CREATE TABLE"}))
}
