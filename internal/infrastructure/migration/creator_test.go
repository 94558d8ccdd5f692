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
		{"add boletos table", "add_boletos_table"},
		{"Add-Till-Sessions", "add_till_sessions"},
		{"ADD_ACCOUNTS", "add_accounts"},
		{"add__movement__index", "add_movement_index"},
		{"Webhook Events 2", "webhook_events_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigrationSequentialVersions(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := CreateMigration(tmpDir, "init schema", "base tables")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)

	second, err := CreateMigration(tmpDir, "add boleto index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	// Both files of each pair exist and share a base name.
	upBase := filepath.Base(first.UpPath)
	downBase := filepath.Base(first.DownPath)
	assert.Equal(t, "000001_init_schema.up.sql", upBase)
	assert.Equal(t, "000001_init_schema.down.sql", downBase)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "init schema")
	assert.Contains(t, string(content), "base tables")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "rollback")
}

func TestCreateMigrationSkipsGaps(t *testing.T) {
	tmpDir := t.TempDir()

	// Pre-existing migrations with a gap; the next version continues from
	// the highest.
	for _, name := range []string{"000001_a.up.sql", "000005_b.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("-- x\n"), 0644))
	}

	mf, err := CreateMigration(tmpDir, "c", "")
	require.NoError(t, err)
	assert.Equal(t, "000006", mf.Version)
}

func TestListMigrationsSorted(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{
		"000002_b.up.sql", "000002_b.down.sql",
		"000001_a.up.sql", "000001_a.down.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("-- x\n"), 0644))
	}

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b"}, migrations)
}

func TestListMigrationsMissingDir(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
