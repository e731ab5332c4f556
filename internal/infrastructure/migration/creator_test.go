package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add brands table", "add_brands_table"},
		{"Add-Brands-Table", "add_brands_table"},
		{"ADD_BRANDS_TABLE", "add_brands_table"},
		{"add__brands__table", "add_brands_table"},
		{"Add Brands 123", "add_brands_123"},
		{"   spaces   ", "spaces"},
		{"trailing_", "trailing"},
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
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add brands table")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14, "version is a YYYYMMDDHHMMSS timestamp")
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_brands_table.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_brands_table.down.sql"), mf.DownPath)

	for _, path := range []string{mf.UpPath, mf.DownPath} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "add brands table")
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		got, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("lists up/down pairs once, in version order", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000001_init.up.sql", "000001_init.down.sql",
			"000002_add_shipments.up.sql", "000002_add_shipments.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
		}

		got, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init", "000002_add_shipments"}, got)
	})
}
