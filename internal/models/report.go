package models

import "time"

// Report is the final persisted narrative artifact, uniquely identified by
// (ReportDate, SourceTag). A second run on the same day overwrites the prior
// report for that tag.
type Report struct {
	ReportDate      string    `json:"report_date"` // YYYY-MM-DD
	SourceTag       string    `json:"source_tag"`
	ReportBody      string    `json:"report_body"`
	GeneratedAt     time.Time `json:"generated_at"`
	ModelUsed       string    `json:"model_used"`
	TokensUsed      int64     `json:"tokens_used"`
	SummarySnapshot string    `json:"summary_snapshot"`
}
