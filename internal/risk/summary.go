package risk

import "github.com/aman-zulfiqar/sol-safety-check/internal/models"

// Summary is a condensed view of a report for quick display.
type Summary struct {
	MintAddress     string           `json:"mint_address"`
	OverallScore    int              `json:"overall_score"`
	Verdict         string           `json:"verdict"`
	RiskLevel       models.RiskLevel `json:"risk_level"`
	HighRiskCount   int              `json:"high_risk_count"`
	MediumRiskCount int              `json:"medium_risk_count"`
	LowRiskCount    int              `json:"low_risk_count"`
	HighRiskIssues  []string         `json:"high_risk_issues"`
	MediumIssues    []string         `json:"medium_risk_issues"`
	TotalNotes      int              `json:"total_notes"`
	DataSources     []string         `json:"data_sources"`
	Warnings        []string         `json:"warnings"`
}

// Summarize counts notes per severity and collects the high and medium messages.
func Summarize(report *models.RiskReport) Summary {
	s := Summary{
		MintAddress:    report.MintAddress,
		OverallScore:   report.OverallScore,
		Verdict:        report.Verdict,
		RiskLevel:      report.RiskLevel,
		HighRiskIssues: []string{},
		MediumIssues:   []string{},
		TotalNotes:     len(report.Notes),
		DataSources:    report.DataSourcesUsed,
		Warnings:       report.Warnings,
	}

	for _, n := range report.Notes {
		switch n.Severity {
		case models.SeverityHigh:
			s.HighRiskCount++
			s.HighRiskIssues = append(s.HighRiskIssues, n.Message)
		case models.SeverityMedium:
			s.MediumRiskCount++
			s.MediumIssues = append(s.MediumIssues, n.Message)
		default:
			s.LowRiskCount++
		}
	}
	return s
}
