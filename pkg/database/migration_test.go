package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_reports.up.sql",
		"000001_create_reports.down.sql",
		"000003_add_index.up.sql",
		"000002_add_column.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	version, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestLatestVersion_Empty(t *testing.T) {
	_, err := LatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestLatestVersion_RepositoryMigrations(t *testing.T) {
	version, err := LatestVersion(filepath.Join("..", "..", "db", "pg"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 2)
}
