package main

import (
	"fmt"
	"os"

	"github.com/jonathan/lighthouse-audit/internal/config"
	"github.com/spf13/cobra"
)

// commonFlags are shared by the commands that evaluate scores.
type commonFlags struct {
	configPath  string
	outputDir   string
	appName     string
	webhookURL  string
	databaseURL string
	verbose     bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML or JSON config file (defaults to ./lighthouse-audit.yaml if present)")
	cmd.Flags().StringVarP(&f.outputDir, "out", "o", "", "Directory for report artifacts")
	cmd.Flags().StringVar(&f.appName, "app-name", "", "Application name used in alerts")
	cmd.Flags().StringVar(&f.webhookURL, "webhook-url", "", "Slack incoming webhook URL (optional, disables alerts when empty)")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

// load resolves the config file and applies explicitly set flags on top.
func (f *commonFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	f.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stdout, "Loaded %d page(s) for %s\n", len(cfg.Pages), cfg.AppName)
	}
	return cfg, nil
}

// apply overrides config values only for flags that were explicitly set.
func (f *commonFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = f.outputDir
	}
	if cmd.Flags().Changed("app-name") {
		cfg.AppName = f.appName
	}
	if cmd.Flags().Changed("webhook-url") {
		cfg.Notify.WebhookURL = f.webhookURL
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}
}
