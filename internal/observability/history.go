package observability

import (
	"fmt"

	"github.com/jonathan/lighthouse-audit/internal/db"
	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintHistory renders recorded scores for one report, newest first.
func (p *Printer) PrintHistory(reportName string, scores []db.PageScore) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintf(p.out, "No recorded scores for %s\n", reportName)
		return err
	}

	table := tablewriter.NewWriter(p.out)
	defer func() { _ = table.Close() }()

	headers := []string{"Recorded", "Run"}
	for _, c := range types.Categories {
		headers = append(headers, c.Title())
	}
	headers = append(headers, "Status", "Alert")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	red, green, faint := p.palette()

	var data [][]string
	for _, ps := range scores {
		row := []string{ps.CreatedAt.Format("2006-01-02 15:04"), ps.RunID.String()[:8]}
		for _, score := range []*float64{ps.Performance, ps.Accessibility, ps.BestPractices, ps.SEO} {
			if score == nil {
				row = append(row, faint("n/a"))
				continue
			}
			row = append(row, formatPercent(*score)+"%")
		}
		status := green("PASS")
		if ps.Failed {
			status = red("FAIL " + ps.FailedCategory)
		}
		alert := "-"
		if ps.AlertSent {
			alert = "sent"
		}
		row = append(row, status, alert)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintRun outputs the stored state of a single run.
func (p *Printer) PrintRun(run *db.Run) {
	content := fmt.Sprintf("App:      %s\nStatus:   %s\nStarted:  %s", run.AppName, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		content += "\nFinished: " + run.CompletedAt.Format("2006-01-02 15:04:05")
	}
	p.printBox("RUN "+run.ID.String(), content)
}
