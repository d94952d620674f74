package server

import "time"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK        bool     `json:"ok"`
	Providers []string `json:"providers"`
	History   bool     `json:"history"`
	Flags     bool     `json:"flags"`
	AI        bool     `json:"ai"`
}

// HistoryResponse lists stored analyses of one mint, newest first
type HistoryResponse struct {
	Mint  string `json:"mint"`
	Items any    `json:"items"`
}

// ExplainRequest optionally overrides the model or forces a fresh analysis
type ExplainRequest struct {
	Model string `json:"model"`
	Fresh bool   `json:"fresh"`
}

// ExplainResponse carries the LLM reading of a report
type ExplainResponse struct {
	Mint         string `json:"mint"`
	OverallScore int    `json:"overall_score"`
	Verdict      string `json:"verdict"`
	Explanation  string `json:"explanation"`
	TookMs       int64  `json:"took_ms"`
}

// RouteResponse summarises a Jupiter quote for the token
type RouteResponse struct {
	InputMint      string   `json:"input_mint"`
	OutputMint     string   `json:"output_mint"`
	InAmount       string   `json:"in_amount"`
	OutAmount      string   `json:"out_amount"`
	PriceImpactPct string   `json:"price_impact_pct"`
	SlippageBps    uint16   `json:"slippage_bps"`
	Route          []string `json:"route"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key    string `json:"key"`    // Flag key, e.g. "provider.birdeye"
	Value  bool   `json:"value"`  // Flag value (true/false)
	Reason string `json:"reason"` // Optional note on why it was flipped
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value  bool   `json:"value"`
	Reason string `json:"reason"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about report history
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}

// liveHeartbeat keeps idle report streams open through proxies.
const liveHeartbeat = 15 * time.Second
