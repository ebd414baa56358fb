package types

// AlertField is one category line of an alert.
type AlertField struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Percent  float64  `json:"percent"`
	// Missing is set when the audit produced no score for the category.
	Missing bool `json:"missing,omitempty"`
}

// AlertPayload is the notification built when a page falls below its baseline.
type AlertPayload struct {
	RunID      string `json:"run_id,omitempty"`
	AppName    string `json:"app_name"`
	ReportName string `json:"report_name"`
	PageURL    string `json:"page_url"`
	// Category is the first failing category in enumeration order.
	Category Category `json:"category"`
	Score    float64  `json:"score"`
	Baseline float64  `json:"baseline"`
	Headline string   `json:"headline"`
	// Fields lists every configured category, failing or not.
	Fields []AlertField `json:"fields"`
}

// EvaluationOutcome is the pass/fail decision for one page.
type EvaluationOutcome struct {
	Failed bool          `json:"failed"`
	Alert  *AlertPayload `json:"alert,omitempty"`
}
