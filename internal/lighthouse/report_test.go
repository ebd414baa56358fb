package lighthouse

import (
	"testing"

	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLHR = `{
  "lighthouseVersion": "12.2.1",
  "requestedUrl": "https://www.nature.com/subjects",
  "finalUrl": "https://www.nature.com/subjects/cancer",
  "finalDisplayedUrl": "https://www.nature.com/subjects/cancer",
  "fetchTime": "2024-05-01T10:00:00.000Z",
  "categories": {
    "performance": {"id": "performance", "title": "Performance", "score": 0.7},
    "accessibility": {"id": "accessibility", "title": "Accessibility", "score": 0.9},
    "best-practices": {"id": "best-practices", "title": "Best Practices", "score": null},
    "seo": {"id": "seo", "title": "SEO", "score": 0.92},
    "pwa": {"id": "pwa", "title": "PWA", "score": 0.3}
  }
}`

func TestParseReport_Scores(t *testing.T) {
	r, err := ParseReport([]byte(sampleLHR))
	require.NoError(t, err)

	scores := r.Scores()

	assert.Equal(t, types.Scores{
		types.CategoryPerformance:   0.7,
		types.CategoryAccessibility: 0.9,
		types.CategorySEO:           0.92,
	}, scores)
	assert.Equal(t, "12.2.1", r.LighthouseVersion)
}

func TestParseReport_AuditedURL(t *testing.T) {
	r, err := ParseReport([]byte(sampleLHR))
	require.NoError(t, err)
	assert.Equal(t, "https://www.nature.com/subjects/cancer", r.AuditedURL())

	r.FinalDisplayedURL = ""
	r.FinalURL = ""
	assert.Equal(t, "https://www.nature.com/subjects", r.AuditedURL())
}

func TestParseReport_Invalid(t *testing.T) {
	_, err := ParseReport([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Lighthouse JSON")
}

func TestReport_Result(t *testing.T) {
	r, err := ParseReport([]byte(sampleLHR))
	require.NoError(t, err)

	res := r.Result([]byte(sampleLHR), []byte("<html></html>"))

	assert.Equal(t, "https://www.nature.com/subjects", res.RequestedURL)
	assert.Equal(t, "https://www.nature.com/subjects/cancer", res.AuditedURL())
	assert.Equal(t, 2024, res.FetchTime.Year())
	assert.Equal(t, "<html></html>", string(res.HTML))
	assert.Len(t, res.Scores, 3)
}
