// Package types provides type definitions for structured data used throughout the lighthouse-audit system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Category identifies a Lighthouse report category by its LHR id.
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryBestPractices Category = "best-practices"
	CategorySEO           Category = "seo"
)

// Categories is the fixed enumeration order used for evaluation, alert fields and
// score summaries.
var Categories = []Category{
	CategoryPerformance,
	CategoryAccessibility,
	CategoryBestPractices,
	CategorySEO,
}

var categoryTitles = map[Category]string{
	CategoryPerformance:   "Performance",
	CategoryAccessibility: "Accessibility",
	CategoryBestPractices: "Best Practices",
	CategorySEO:           "SEO",
}

// Title returns the display name used in reports and alerts.
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return string(c)
}

// Known reports whether c is one of the audited categories.
func (c Category) Known() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Scores maps a category to its score in [0, 1]. A category without a usable
// score is absent from the map.
type Scores map[Category]float64

// Get returns the score for c and whether it was present.
func (s Scores) Get(c Category) (float64, bool) {
	score, ok := s[c]
	return score, ok
}

// Baseline maps a category to the minimum acceptable score.
type Baseline map[Category]float64

// Threshold is a single baseline entry.
type Threshold struct {
	Category Category
	Min      float64
}

// Ordered returns the configured thresholds in enumeration order.
// Categories outside the enumeration are ignored.
func (b Baseline) Ordered() []Threshold {
	thresholds := make([]Threshold, 0, len(b))
	for _, c := range Categories {
		if v, ok := b[c]; ok {
			thresholds = append(thresholds, Threshold{Category: c, Min: v})
		}
	}
	return thresholds
}

// DefaultBaselineScore is the minimum score applied to every category when none is configured.
const DefaultBaselineScore = 0.80

// DefaultBaseline returns a baseline of DefaultBaselineScore for every category.
func DefaultBaseline() Baseline {
	b := make(Baseline, len(Categories))
	for _, c := range Categories {
		b[c] = DefaultBaselineScore
	}
	return b
}

// Percent converts a score in [0, 1] to a percentage.
func Percent(score float64) float64 {
	return score * 100
}
