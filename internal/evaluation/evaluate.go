// Package evaluation decides whether an audited page fell below its baseline and
// builds the alert describing the breach.
package evaluation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Input is everything the evaluator looks at for one page.
type Input struct {
	AppName    string
	PageURL    string
	ReportName string
	Scores     types.Scores
	Baseline   types.Baseline
}

// Evaluate compares the page scores against the baseline. It has no side effects.
//
// The headline names the first failing category in enumeration order; the alert
// fields still cover every configured category. A category missing from the
// scores never fails, and a score equal to its baseline passes.
func Evaluate(in Input) types.EvaluationOutcome {
	breach, ok := FirstBreach(in.Scores, in.Baseline)
	if !ok {
		return types.EvaluationOutcome{}
	}

	return types.EvaluationOutcome{
		Failed: true,
		Alert: &types.AlertPayload{
			AppName:    in.AppName,
			ReportName: in.ReportName,
			PageURL:    in.PageURL,
			Category:   breach.Category,
			Score:      breach.Score,
			Baseline:   breach.Min,
			Headline:   Headline(in.AppName, breach, in.ReportName, in.PageURL),
			Fields:     Fields(in.Scores, in.Baseline),
		},
	}
}

// Breach is a category whose score is below its threshold.
type Breach struct {
	types.Threshold
	Score float64
}

// FirstBreach scans the baseline in enumeration order and stops at the first
// category scoring strictly below its threshold.
func FirstBreach(scores types.Scores, baseline types.Baseline) (Breach, bool) {
	for _, th := range baseline.Ordered() {
		score, ok := scores.Get(th.Category)
		if !ok {
			continue
		}
		if score < th.Min {
			return Breach{Threshold: th, Score: score}, true
		}
	}
	return Breach{}, false
}

// Fields reports every configured category with its percentage, in enumeration order.
func Fields(scores types.Scores, baseline types.Baseline) []types.AlertField {
	thresholds := baseline.Ordered()
	fields := make([]types.AlertField, 0, len(thresholds))
	for _, th := range thresholds {
		field := types.AlertField{Category: th.Category, Title: th.Category.Title()}
		if score, ok := scores.Get(th.Category); ok {
			field.Percent = types.Percent(score)
		} else {
			field.Missing = true
		}
		fields = append(fields, field)
	}
	return fields
}

// Headline describes a breach in one line.
func Headline(appName string, b Breach, reportName, pageURL string) string {
	return fmt.Sprintf("%s: %s score for %s (%s) below %s%%",
		appName, b.Category.Title(), reportName, pageURL, FormatPercent(types.Percent(b.Min)))
}

// Summary is the log line written when a page breaches, e.g.
// "Nature: Performance score 70% for Nature Homepage is less than the defined baseline of 80%".
func Summary(a *types.AlertPayload) string {
	return fmt.Sprintf("%s: %s score %s%% for %s is less than the defined baseline of %s%%",
		a.AppName, a.Category.Title(), FormatPercent(types.Percent(a.Score)),
		a.ReportName, FormatPercent(types.Percent(a.Baseline)))
}

// FormatPercent renders a percentage without trailing zeros. Float noise from
// the score conversion is dropped, so 0.57*100 renders as 57.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(math.Round(p*1e6)/1e6, 'f', -1, 64)
}
