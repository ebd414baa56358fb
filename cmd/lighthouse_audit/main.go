// Package main provides the entry point for the lighthouse-audit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lighthouse_audit",
	Short: "Lighthouse score monitoring for web pages",
	Long: `lighthouse_audit drives a Chrome session through a list of pages, runs a Lighthouse
audit on each, writes HTML/JSON/score reports and alerts a Slack webhook when any
category score falls below its baseline. The process exits with status 1 if any
page breached its baseline or the run was aborted.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
