package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func fullReport() *models.RiskReport {
	supply := decimal.NewFromInt(1_000_000_000)
	created := testNow.Add(-10 * 24 * time.Hour)
	return &models.RiskReport{
		MintAddress:  "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		OverallScore: 45,
		Verdict:      "Caution",
		RiskLevel:    models.RiskLevelCaution,
		Notes: []models.RiskNote{
			{RuleName: "Authorities", Score: 70, Message: "Mint authority not renounced", Severity: models.SeverityHigh},
			{RuleName: "Listings", Score: 0, Message: "Listed on 1 major DEX(s)", Severity: models.SeverityLow},
		},
		TokenMeta: &models.TokenMeta{
			Address:                    "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
			Symbol:                     "Bonk",
			Supply:                     &supply,
			IsFreezeAuthorityRenounced: true,
		},
		Pairs: []models.Pair{
			{DexID: "raydium", LiquidityUSD: ptr(1_234_567.0), Volume24hUSD: ptr(98_000.0), PairCreatedAt: &created},
			{LiquidityUSD: ptr(0.0)},
		},
		TopHolders: []models.HolderStat{
			{Address: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", Balance: decimal.NewFromInt(250_000_000), Percentage: decimal.NewFromFloat(25)},
		},
		DataSourcesUsed: []string{"dexscreener", "solana_chain"},
		Warnings:        []string{"Birdeye failed: http 401"},
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Console(&buf, fullReport(), testNow))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "⚠️ Caution\nRisk Score: 45/100 (caution)\n"))
	assert.Contains(t, out, "🔴 HIGH")
	assert.Contains(t, out, "🟢 LOW")
	assert.Contains(t, out, "Mint authority not renounced")
	assert.Contains(t, out, "1,000,000,000")
	assert.Regexp(t, `Mint Authority\s+Active`, out)
	assert.Regexp(t, `Freeze Authority\s+Renounced`, out)
	assert.Contains(t, out, "$1,234,567")
	assert.Contains(t, out, "$98,000")
	assert.Contains(t, out, "10 days")
	assert.Regexp(t, `Unknown\s+N/A\s+N/A\s+N/A`, out)
	assert.Contains(t, out, "9WzDXwBb...")
	assert.Contains(t, out, "25.00%")
	assert.Contains(t, out, "• Birdeye failed: http 401")
	assert.Contains(t, out, "dexscreener, solana_chain")
}

func TestConsole_Minimal(t *testing.T) {
	report := &models.RiskReport{OverallScore: 16, Verdict: "Likely OK (still DYOR)", RiskLevel: models.RiskLevelSafe}

	var buf bytes.Buffer
	require.NoError(t, Console(&buf, report, testNow))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "✅ Likely OK (still DYOR)"))
	assert.NotContains(t, out, "Token Information")
	assert.NotContains(t, out, "Trading Pairs")
	assert.NotContains(t, out, "Warnings")
	assert.Contains(t, out, "== Data Sources Used ==\nNone\n")
}

func TestConsole_CapsRows(t *testing.T) {
	report := fullReport()
	report.Pairs = nil
	for i := 0; i < 8; i++ {
		report.Pairs = append(report.Pairs, models.Pair{DexID: "orca"})
	}

	var buf bytes.Buffer
	require.NoError(t, Console(&buf, report, testNow))
	assert.Equal(t, maxPairs, strings.Count(buf.String(), "orca"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestConsole_WriteError(t *testing.T) {
	err := Console(failingWriter{}, fullReport(), testNow)
	assert.EqualError(t, err, "closed pipe")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, fullReport()))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.EqualValues(t, 45, back["overall_score"])
	assert.Equal(t, "caution", back["risk_level"])
}
