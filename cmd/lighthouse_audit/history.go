package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/lighthouse-audit/internal/config"
	"github.com/jonathan/lighthouse-audit/internal/db"
	"github.com/jonathan/lighthouse-audit/internal/observability"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show recorded scores for a report or the state of a run",
	Long: `Reads the score history written by "run" when a database is configured.
Use --name to list the latest scores of one report, or --run to show a single run.`,
	RunE: runHistoryCmd,
}

var (
	historyConfigPath  string
	historyDatabaseURL string
	historyName        string
	historyRunID       string
	historyLimit       int
)

func init() {
	historyCommand.Flags().StringVar(&historyConfigPath, "config", "", "Path to a YAML or JSON config file (defaults to ./lighthouse-audit.yaml if present)")
	historyCommand.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	historyCommand.Flags().StringVarP(&historyName, "name", "n", "", "Report name to list scores for")
	historyCommand.Flags().StringVar(&historyRunID, "run", "", "Run ID to show")
	historyCommand.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of entries to list")

	historyCommand.MarkFlagsOneRequired("name", "run")
	historyCommand.MarkFlagsMutuallyExclusive("name", "run")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	databaseURL, err := resolveHistoryDatabaseURL(cmd)
	if err != nil {
		return err
	}

	var runID uuid.UUID
	if historyRunID != "" {
		if runID, err = uuid.Parse(historyRunID); err != nil {
			return fmt.Errorf("invalid run ID %q: %w", historyRunID, err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := db.Connect(connectCtx, databaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout(), true)

	if historyRunID != "" {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		printer.PrintRun(run)
		return nil
	}

	scores, err := store.RecentScores(ctx, historyName, historyLimit)
	if err != nil {
		return err
	}
	return printer.PrintHistory(historyName, scores)
}

// resolveHistoryDatabaseURL prefers --db-url over the config's database_url.
func resolveHistoryDatabaseURL(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("db-url") && historyDatabaseURL != "" {
		return historyDatabaseURL, nil
	}
	cfg, err := config.Load(historyConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return "", errors.New("no database configured: set --db-url, database_url or DATABASE_URL")
	}
	return cfg.DatabaseURL, nil
}
