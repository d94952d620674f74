package models

import "time"

// Severity is the per-note qualitative label derived from a rule's own thresholds.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskLevel is the per-report tier derived from the composite score.
type RiskLevel string

const (
	RiskLevelSafe     RiskLevel = "safe"
	RiskLevelCaution  RiskLevel = "caution"
	RiskLevelHighRisk RiskLevel = "high_risk"
)

// RiskNote is the output of a single rule.
type RiskNote struct {
	RuleName string   `json:"rule_name"`
	Score    int      `json:"score"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// RiskReport is the aggregate result of one analysis.
type RiskReport struct {
	MintAddress     string         `json:"mint_address"`
	OverallScore    int            `json:"overall_score"`
	Verdict         string         `json:"verdict"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Notes           []RiskNote     `json:"notes"`
	TokenMeta       *TokenMeta     `json:"token_meta,omitempty"`
	Pairs           []Pair         `json:"pairs"`
	TopHolders      []HolderStat   `json:"top_holders"`
	LiquidityLock   *LiquidityLock `json:"liquidity_lock,omitempty"`
	TradingInfo     *TradingInfo   `json:"trading_info,omitempty"`
	PumpFunInfo     *PumpFunInfo   `json:"pump_fun_info,omitempty"`
	DataSourcesUsed []string       `json:"data_sources_used"`
	Warnings        []string       `json:"warnings"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
