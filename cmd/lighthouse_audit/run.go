package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/lighthouse-audit/internal/audit"
	"github.com/jonathan/lighthouse-audit/internal/browser"
	"github.com/jonathan/lighthouse-audit/internal/config"
	"github.com/jonathan/lighthouse-audit/internal/db"
	"github.com/jonathan/lighthouse-audit/internal/lighthouse"
	"github.com/jonathan/lighthouse-audit/internal/notify"
	"github.com/jonathan/lighthouse-audit/internal/observability"
	"github.com/jonathan/lighthouse-audit/internal/report"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Audit every configured page and alert on scores below baseline",
	Long: `Launches Chrome with a remote debugging port, performs each page's navigation steps,
runs Lighthouse against the page the browser ends on, writes the reports and evaluates
the scores against the baseline.

Configuration is loaded from --config (YAML or JSON) and LIGHTHOUSE_* environment
variables. Command-line flags override config values.`,
	RunE: runAuditCmd,
}

var (
	runFlags    commonFlags
	runHeadless bool
	runPort     int
	runNoTable  bool
)

func init() {
	runFlags.register(runCommand)
	runCommand.Flags().BoolVar(&runHeadless, "headless", true, "Run Chrome headless")
	runCommand.Flags().IntVar(&runPort, "port", browser.DefaultPort, "Chrome remote debugging port Lighthouse attaches to")
	runCommand.Flags().BoolVar(&runNoTable, "no-summary", false, "Do not print the summary table")

	rootCmd.AddCommand(runCommand)
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := runFlags.load(cmd)
	if err != nil {
		return err
	}
	applyBrowserOverrides(cmd, cfg)

	orch := audit.New(audit.Options{
		AppName:  cfg.AppName,
		Baseline: cfg.BaselineScores(),
		Out:      os.Stdout,
		Verbose:  cfg.Verbose,
	}, sessionFactory(cfg), lighthouse.NewRunner(cfg.LighthouseOptions()), report.NewWriter(cfg.OutputDir, cfg.Verbose))

	attachNotifier(orch, cfg)

	if cfg.DatabaseURL != "" {
		store, err := connectRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Warning: score history disabled: %v", err)
		} else {
			defer store.Close()
			orch.WithRecorder(store)
		}
	}

	printer := observability.NewPrinter(os.Stdout, true)
	if cfg.Verbose {
		printer.PrintBaseline(cfg.BaselineScores())
	}

	result, runErr := orch.Run(ctx, cfg.Pages)

	if !runNoTable {
		if err := printer.PrintRunSummary(result, cfg.BaselineScores()); err != nil {
			log.Printf("[AUDIT] Warning: failed to print summary: %v", err)
		}
	}

	return audit.Verdict(result, runErr)
}

// applyBrowserOverrides applies the run-only flags.
func applyBrowserOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = runHeadless
	}
	if cmd.Flags().Changed("port") {
		cfg.Browser.Port = runPort
	}
}

func sessionFactory(cfg *config.Config) audit.SessionFactory {
	opts := cfg.BrowserOptions()
	return func(ctx context.Context) (audit.Session, error) {
		session, err := browser.Launch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// attachNotifier wires the Slack webhook when one is configured.
func attachNotifier(orch *audit.Orchestrator, cfg *config.Config) {
	slackOpts, ok := cfg.SlackOptions()
	if !ok {
		if cfg.Verbose {
			log.Printf("[NOTIFY] No webhook configured; alerts will be logged only")
		}
		return
	}
	orch.WithNotifier(notify.NewSlack(slackOpts))
}

func connectRecorder(ctx context.Context, databaseURL string) (*db.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := db.Connect(connectCtx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(connectCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return store, nil
}
