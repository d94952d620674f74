package models

import "time"

// HistoryEntry is one stored analysis of a mint.
type HistoryEntry struct {
	ID              string    `json:"id"`
	MintAddress     string    `json:"mint_address"`
	OverallScore    int       `json:"overall_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Verdict         string    `json:"verdict"`
	HighNotes       int       `json:"high_notes"`
	DataSourcesUsed []string  `json:"data_sources_used"`
	Warnings        []string  `json:"warnings"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ReportEvent is published whenever a fresh report is produced.
type ReportEvent struct {
	RunID        string    `json:"run_id"`
	MintAddress  string    `json:"mint_address"`
	OverallScore int       `json:"overall_score"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Verdict      string    `json:"verdict"`
	GeneratedAt  time.Time `json:"generated_at"`
}
