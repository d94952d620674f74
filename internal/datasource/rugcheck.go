package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// RugCheck reads the RugCheck risk summary. It needs a JWT and returns
// nothing without one.
type RugCheck struct {
	baseURL string
	jwt     string
	http    *httpGetter
}

func NewRugCheck(cfg HTTPConfig, jwt string) *RugCheck {
	return &RugCheck{
		baseURL: trimBaseURL(cfg.BaseURL, constants.RugCheckBaseURL),
		jwt:     strings.TrimSpace(jwt),
		http:    newHTTPGetter(constants.ProviderRugCheck, cfg),
	}
}

func (r *RugCheck) Name() string { return constants.ProviderRugCheck }

func (r *RugCheck) Fetch(ctx context.Context, mint string) (*Result, error) {
	if r.jwt == "" {
		return nil, nil
	}

	headers := map[string]string{"Authorization": "Bearer " + r.jwt}

	var raw map[string]any
	if err := r.http.getJSON(ctx, r.baseURL+"/v1/tokens/"+mint+"/risk-summary", headers, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	data := &models.RugCheckData{Raw: raw}
	data.Score = firstNumber(raw, "risk_score", "riskScore", "score")
	data.RiskLevel = ParseRiskLevel(raw)
	return &Result{RugCheck: data}, nil
}

// ParseRiskLevel reads the level RugCheck reports, falling back to bucketing
// its numeric score (>=80 high, >=50 medium, else low). Returns "" when
// neither is present.
func ParseRiskLevel(raw map[string]any) string {
	for _, key := range []string{"risk_level", "riskLevel", "level"} {
		if v, ok := raw[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return strings.ToLower(s)
			}
		}
	}

	score := firstNumber(raw, "risk_score", "riskScore", "score")
	switch {
	case score == nil:
		return ""
	case *score >= 80:
		return "high"
	case *score >= 50:
		return "medium"
	default:
		return "low"
	}
}

func firstNumber(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
