package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jonathan/lighthouse-audit/internal/audit"
	"github.com/jonathan/lighthouse-audit/internal/lighthouse"
	"github.com/jonathan/lighthouse-audit/internal/observability"
	"github.com/jonathan/lighthouse-audit/internal/report"
	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/spf13/cobra"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a saved Lighthouse JSON report against the baseline",
	Long: `Reads a Lighthouse JSON report produced earlier, writes the report artifacts and checks
the scores against the configured baseline without launching a browser. With --notify
the alert is sent to the configured webhook. Exits with status 1 on a breach.`,
	RunE: runEvaluateCmd,
}

var (
	evalFlags  commonFlags
	evalReport string
	evalName   string
	evalNotify bool
)

func init() {
	evalFlags.register(evaluateCommand)
	evaluateCommand.Flags().StringVarP(&evalReport, "report", "r", "", "Path to a Lighthouse JSON report (required)")
	evaluateCommand.Flags().StringVarP(&evalName, "name", "n", "", "Report name used for artifacts and alerts (required)")
	evaluateCommand.Flags().BoolVar(&evalNotify, "notify", false, "Send the alert to the configured webhook on a breach")

	_ = evaluateCommand.MarkFlagRequired("report")
	_ = evaluateCommand.MarkFlagRequired("name")

	rootCmd.AddCommand(evaluateCommand)
}

func runEvaluateCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := evalFlags.load(cmd)
	if err != nil {
		return err
	}

	auditResult, err := loadSavedReport(evalReport)
	if err != nil {
		return err
	}

	orch := audit.New(audit.Options{
		AppName:  cfg.AppName,
		Baseline: cfg.BaselineScores(),
		Out:      cmd.OutOrStdout(),
		Verbose:  cfg.Verbose,
	}, nil, nil, report.NewWriter(cfg.OutputDir, cfg.Verbose))
	if evalNotify {
		attachNotifier(orch, cfg)
	}

	page := types.Page{URL: auditResult.RequestedURL, ReportName: evalName}
	result := orch.NewRun()
	orch.Process(ctx, result, page, auditResult)

	printer := observability.NewPrinter(cmd.OutOrStdout(), true)
	if err := printer.PrintRunSummary(result, cfg.BaselineScores()); err != nil {
		log.Printf("[AUDIT] Warning: failed to print summary: %v", err)
	}

	return audit.Verdict(result, nil)
}

// loadSavedReport reads an LHR file and, when it follows the Lighthouse
// <base>.report.json naming, the matching <base>.report.html.
func loadSavedReport(path string) (*types.AuditResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	lhr, err := lighthouse.ParseReport(data)
	if err != nil {
		return nil, err
	}

	var html []byte
	if base, ok := strings.CutSuffix(path, ".report.json"); ok {
		if html, err = os.ReadFile(base + ".report.html"); err != nil {
			html = nil
		}
	}
	return lhr.Result(data, html), nil
}
