// Package observability provides formatted console output for audit runs.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jonathan/lighthouse-audit/internal/evaluation"
	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxURLWidth truncates long URLs in the summary table
	maxURLWidth = 48
)

// Printer handles formatted run output
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBaseline outputs the thresholds a run is evaluated against.
func (p *Printer) PrintBaseline(baseline types.Baseline) {
	var sb strings.Builder
	for _, th := range baseline.Ordered() {
		sb.WriteString(fmt.Sprintf("%-16s %s%%\n", th.Category.Title(), formatPercent(th.Min)))
	}
	p.printBox("BASELINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary renders one row per audited page with scores coloured
// against the baseline.
func (p *Printer) PrintRunSummary(result *types.RunResult, baseline types.Baseline) error {
	if result == nil {
		return nil
	}

	table := tablewriter.NewWriter(p.out)
	defer func() { _ = table.Close() }()

	headers := []string{"Page", "URL"}
	for _, c := range types.Categories {
		headers = append(headers, c.Title())
	}
	headers = append(headers, "Status")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	red, green, faint := p.palette()

	var data [][]string
	for _, page := range result.Pages {
		row := []string{page.ReportName, truncate(page.AuditedURL, maxURLWidth)}
		for _, c := range types.Categories {
			score, ok := page.Scores.Get(c)
			if !ok {
				row = append(row, faint("n/a"))
				continue
			}
			cell := formatPercent(score) + "%"
			if threshold, configured := baseline[c]; configured && score < threshold {
				row = append(row, red(cell))
			} else {
				row = append(row, green(cell))
			}
		}
		row = append(row, pageStatus(&page, red, green))
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(p.out, "Run %s: %d page(s), %d below baseline, %d alert(s) sent\n",
		result.RunID, len(result.Pages), len(result.BreachedPages()), result.AlertsSent())
	return err
}

func (p *Printer) palette() (red, green, faint func(...any) string) {
	if !p.useColors {
		return fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	return color.New(color.FgRed).SprintFunc(),
		color.New(color.FgGreen).SprintFunc(),
		color.New(color.FgHiBlack).SprintFunc()
}

func pageStatus(page *types.PageOutcome, red, green func(...any) string) string {
	status := green("PASS")
	if page.Evaluation.Failed {
		status = red("FAIL")
	}
	if n := len(page.ArtifactErrors()); n > 0 {
		status += fmt.Sprintf(" (%d artifact error(s))", n)
	}
	return status
}

func formatPercent(score float64) string {
	return evaluation.FormatPercent(types.Percent(score))
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
