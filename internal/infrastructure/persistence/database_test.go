package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/commerce/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDatabase_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(config.DatabaseConfig{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Driver)
	require.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	err = db.Transaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("CREATE TABLE t (id INTEGER)").Error
	})
	require.NoError(t, err)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "commerce.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN(""))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
}
