package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add carts table", "add_carts_table"},
		{"Add-Carts-Table", "add_carts_table"},
		{"ADD_CARTS_TABLE", "add_carts_table"},
		{"add__carts__table", "add_carts_table"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "add gift cards", "Gift card balances")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_gift_cards.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_gift_cards.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Gift card balances")
	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"20260102000000_b.up.sql",
		"20260102000000_b.down.sql",
		"20260101000000_a.up.sql",
		"20260103000000_c.up.sql",
		"README.md",
		"notaversion_x.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "20260104000000_d.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "20260101000000_a", migrations[0].Name)
	assert.Equal(t, uint(20260102000000), migrations[1].Version)
	assert.True(t, migrations[1].HasDown)
	assert.False(t, migrations[2].HasDown)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for _, m := range migrations {
		assert.True(t, m.HasDown, "%s has no down migration", m.Name)
	}
}
