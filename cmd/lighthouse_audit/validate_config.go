package main

import (
	"fmt"
	"io"

	"github.com/jonathan/lighthouse-audit/internal/config"
	"github.com/jonathan/lighthouse-audit/internal/observability"
	"github.com/jonathan/lighthouse-audit/internal/schemas"
	"github.com/spf13/cobra"
)

var validateConfigCommand = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate a config file and print the resolved pages",
	RunE:  runValidateConfigCmd,
}

var (
	validateConfigPath  string
	validatePrintSchema bool
)

func init() {
	validateConfigCommand.Flags().StringVar(&validateConfigPath, "config", "", "Path to a YAML or JSON config file (defaults to ./lighthouse-audit.yaml if present)")
	validateConfigCommand.Flags().BoolVar(&validatePrintSchema, "print-schema", false, "Print the JSON Schema config files are checked against and exit")
	rootCmd.AddCommand(validateConfigCommand)
}

func runValidateConfigCmd(cmd *cobra.Command, _ []string) error {
	if validatePrintSchema {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), schemas.ConfigSchema())
		return err
	}

	cfg, err := config.Load(validateConfigPath)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation failed: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation failed: %v\n", err)
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Validation passed\n")
	printResolvedConfig(out, cfg)
	return nil
}

//nolint:errcheck // console output; errors are not recoverable
func printResolvedConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "App: %s\n", cfg.AppName)
	fmt.Fprintf(out, "Output: %s\n", cfg.OutputDir)
	if cfg.Notify.WebhookURL == "" {
		fmt.Fprintf(out, "Alerts: disabled (no webhook)\n")
	} else {
		fmt.Fprintf(out, "Alerts: enabled\n")
	}
	observability.NewPrinter(out, false).PrintBaseline(cfg.BaselineScores())

	for i, page := range cfg.Pages {
		fmt.Fprintf(out, "Page %d/%d: %s (%s)\n", i+1, len(cfg.Pages), page.ReportName, page.URL)
		for j, step := range page.NavigationSteps() {
			fmt.Fprintf(out, "  %d. %s\n", j+1, step)
		}
	}
}
