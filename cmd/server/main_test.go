package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "noit.db")

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "migrate-test-secret")
	t.Setenv("DATABASE_URL", "sqlite://"+dbPath)
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestMigrateCommand_MissingSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "noit.db"))

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	assert.Error(t, root.Execute())
}
