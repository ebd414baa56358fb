package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "history"}
	cmd.Flags().StringVar(&historyConfigPath, "config", "", "")
	cmd.Flags().StringVar(&historyDatabaseURL, "db-url", "", "")
	require.NoError(t, cmd.ParseFlags(args))
	t.Cleanup(func() {
		historyConfigPath = ""
		historyDatabaseURL = ""
	})
	return cmd
}

func TestResolveHistoryDatabaseURL_Flag(t *testing.T) {
	cmd := newHistoryFlagCommand(t, "--db-url", "postgres://flag/db")

	url, err := resolveHistoryDatabaseURL(cmd)
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/db", url)
}

func TestResolveHistoryDatabaseURL_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://env/db")
	cmd := newHistoryFlagCommand(t)

	url, err := resolveHistoryDatabaseURL(cmd)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", url)
}

func TestResolveHistoryDatabaseURL_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LIGHTHOUSE_DATABASE_URL", "")
	cmd := newHistoryFlagCommand(t)

	_, err := resolveHistoryDatabaseURL(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}
