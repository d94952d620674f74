package risk

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Rule names double as weight keys.
const (
	RuleAuthorities   = "Authorities"
	RuleLiquidity     = "Liquidity"
	RuleTradeability  = "Tradeability"
	RuleConcentration = "Concentration"
	RuleAgeHype       = "Age/Hype"
	RulePumpFun       = "Pump.fun"
	RuleListings      = "Listings"
	RuleRugCheck      = "RugCheck"
)

// Liquidity thresholds (USD).
const (
	lowLiquidityUSD      = 2_000
	moderateLiquidityUSD = 10_000
	minLockedPercentage  = 60
	minLockDurationDays  = 7
)

// Age/Hype thresholds.
const (
	newTokenAge       = 24 * time.Hour
	recentTokenAge    = 7 * 24 * time.Hour
	hypeVolume24hUSD  = 1_000_000
)

// Pump.fun thresholds.
const (
	highDevHoldingPct = 20
)

// MajorDEXs are the venues counted by the listings rule (lowercase dex ids).
var MajorDEXs = map[string]struct{}{
	"raydium": {},
	"orca":    {},
	"jupiter": {},
	"meteora": {},
}

var usd = message.NewPrinter(language.English)

// CheckAuthorities scores mint and freeze authority status.
func CheckAuthorities(meta *models.TokenMeta) models.RiskNote {
	if meta == nil {
		return models.RiskNote{
			RuleName: RuleAuthorities,
			Score:    10,
			Message:  "No authority information available",
			Severity: models.SeverityMedium,
		}
	}

	score := 0
	var messages []string

	if present(meta.MintAuthority) && !meta.IsMintAuthorityRenounced {
		score += 25
		messages = append(messages, "Mint authority not renounced")
	}
	if present(meta.FreezeAuthority) && !meta.IsFreezeAuthorityRenounced {
		score += 15
		messages = append(messages, "Freeze authority present")
	}
	if len(messages) == 0 {
		messages = append(messages, "Authorities properly renounced")
	}

	return newNote(RuleAuthorities, score, messages, 30, 15)
}

// CheckLiquidity scores the deepest pool and the lock status.
func CheckLiquidity(pairs []models.Pair, lock *models.LiquidityLock) models.RiskNote {
	if len(pairs) == 0 {
		return models.RiskNote{
			RuleName: RuleLiquidity,
			Score:    25,
			Message:  "No trading pairs found",
			Severity: models.SeverityHigh,
		}
	}

	score := 0
	var messages []string

	maxLiquidity := 0.0
	for _, p := range pairs {
		if p.LiquidityUSD != nil && *p.LiquidityUSD > maxLiquidity {
			maxLiquidity = *p.LiquidityUSD
		}
	}

	switch {
	case maxLiquidity < lowLiquidityUSD:
		score += 25
		messages = append(messages, usd.Sprintf("Low liquidity: $%.0f", maxLiquidity))
	case maxLiquidity < moderateLiquidityUSD:
		score += 10
		messages = append(messages, usd.Sprintf("Moderate liquidity: $%.0f", maxLiquidity))
	}

	switch {
	case lock == nil:
		score += 10
		messages = append(messages, "No lock information available")
	case !lock.IsLocked:
		score += 20
		messages = append(messages, "No liquidity lock detected")
	case lock.LockedPercentage != nil && *lock.LockedPercentage < minLockedPercentage:
		score += 15
		messages = append(messages, fmt.Sprintf("Low lock percentage: %s%%", formatFloat(*lock.LockedPercentage)))
	case lock.LockDurationDays != nil && *lock.LockDurationDays < minLockDurationDays:
		score += 10
		messages = append(messages, fmt.Sprintf("Short lock duration: %d days", *lock.LockDurationDays))
	}

	if len(messages) == 0 {
		messages = append(messages, "Liquidity appears adequate")
	}

	return newNote(RuleLiquidity, score, messages, 30, 15)
}

// CheckTradeability scores sell restrictions, taxes and the honeypot flag.
// Cannot-sell and honeypot are deliberately additive.
func CheckTradeability(info *models.TradingInfo) models.RiskNote {
	if info == nil {
		return models.RiskNote{
			RuleName: RuleTradeability,
			Score:    15,
			Message:  "No trading information available",
			Severity: models.SeverityMedium,
		}
	}

	score := 0
	var messages []string

	if info.CanSell != nil && !*info.CanSell {
		score += 35
		messages = append(messages, "Cannot sell tokens (honeypot)")
	}

	if tax := info.SellTaxPercentage; tax != nil {
		switch {
		case *tax > 10:
			score += 35
			messages = append(messages, fmt.Sprintf("High sell tax: %s%%", formatFloat(*tax)))
		case *tax > 5:
			score += 15
			messages = append(messages, fmt.Sprintf("Moderate sell tax: %s%%", formatFloat(*tax)))
		}
	}

	if tax := info.BuyTaxPercentage; tax != nil && *tax > 10 {
		score += 15
		messages = append(messages, fmt.Sprintf("High buy tax: %s%%", formatFloat(*tax)))
	}

	if info.IsHoneypot {
		score += 35
		messages = append(messages, "Detected as honeypot")
	}

	if len(messages) == 0 {
		messages = append(messages, "Trading appears normal")
	}

	return newNote(RuleTradeability, score, messages, 30, 15)
}

// CheckConcentration scores how much of the supply sits with the top 1% and
// top 10% of holders. Holders are ranked by balance here, whatever order the
// caller passed them in; the input slice is not modified.
func CheckConcentration(holders []models.HolderStat) models.RiskNote {
	if len(holders) == 0 {
		return models.RiskNote{
			RuleName: RuleConcentration,
			Score:    20,
			Message:  "No holder information available",
			Severity: models.SeverityMedium,
		}
	}

	ranked := SortHoldersByBalance(holders)

	total := len(ranked)
	top1Count := max(1, total/100)
	top10Count := max(1, total/10)

	var top1, top10, all decimal.Decimal
	for i, h := range ranked {
		if i < top1Count {
			top1 = top1.Add(h.Balance)
		}
		if i < top10Count {
			top10 = top10.Add(h.Balance)
		}
		all = all.Add(h.Balance)
	}

	score := 0
	var messages []string

	if all.IsPositive() {
		hundred := decimal.NewFromInt(100)
		top1Pct := top1.Div(all).Mul(hundred)
		top10Pct := top10.Div(all).Mul(hundred)

		switch {
		case top10Pct.GreaterThan(decimal.NewFromInt(70)):
			score += 30
			messages = append(messages, fmt.Sprintf("High top-10%% concentration: %s%%", top10Pct.StringFixed(1)))
		case top10Pct.GreaterThan(decimal.NewFromInt(50)):
			score += 15
			messages = append(messages, fmt.Sprintf("Moderate top-10%% concentration: %s%%", top10Pct.StringFixed(1)))
		}

		switch {
		case top1Pct.GreaterThan(decimal.NewFromInt(30)):
			score += 25
			messages = append(messages, fmt.Sprintf("High top-1%% concentration: %s%%", top1Pct.StringFixed(1)))
		case top1Pct.GreaterThan(decimal.NewFromInt(20)):
			score += 10
			messages = append(messages, fmt.Sprintf("Moderate top-1%% concentration: %s%%", top1Pct.StringFixed(1)))
		}
	}

	if len(messages) == 0 {
		messages = append(messages, "Holder distribution appears healthy")
	}

	return newNote(RuleConcentration, score, messages, 30, 15)
}

// SortHoldersByBalance returns a copy of holders ordered by balance, largest first.
func SortHoldersByBalance(holders []models.HolderStat) []models.HolderStat {
	ranked := slices.Clone(holders)
	slices.SortStableFunc(ranked, func(a, b models.HolderStat) int {
		return b.Balance.Cmp(a.Balance)
	})
	return ranked
}

// CheckAgeHype scores very young tokens and heavy volume on them.
func CheckAgeHype(pairs []models.Pair, now time.Time) models.RiskNote {
	if len(pairs) == 0 {
		return models.RiskNote{
			RuleName: RuleAgeHype,
			Score:    10,
			Message:  "No trading pairs to analyze",
			Severity: models.SeverityLow,
		}
	}

	score := 0
	var messages []string

	var oldest *time.Time
	for _, p := range pairs {
		if p.PairCreatedAt != nil && (oldest == nil || p.PairCreatedAt.Before(*oldest)) {
			oldest = p.PairCreatedAt
		}
	}

	isNew := false
	if oldest != nil {
		age := now.Sub(*oldest)
		switch {
		case age < newTokenAge:
			isNew = true
			score += 10
			messages = append(messages, fmt.Sprintf("Very new token: %.1f hours old", age.Hours()))
		case age < recentTokenAge:
			messages = append(messages, fmt.Sprintf("New token: %.1f days old", age.Hours()/24))
		}
	}

	if isNew {
		for _, p := range pairs {
			if p.Volume24hUSD != nil && *p.Volume24hUSD > hypeVolume24hUSD {
				score += 10
				messages = append(messages, "High volume on new token (potential PnD)")
				break
			}
		}
	}

	if len(messages) == 0 {
		messages = append(messages, "Age and volume patterns appear normal")
	}

	return newNote(RuleAgeHype, score, messages, 20, 10)
}

// CheckPumpFun scores Pump.fun launch specifics.
func CheckPumpFun(info *models.PumpFunInfo) models.RiskNote {
	if info == nil || !info.IsPumpFunToken {
		return models.RiskNote{
			RuleName: RulePumpFun,
			Score:    0,
			Message:  "Not a Pump.fun token",
			Severity: models.SeverityLow,
		}
	}

	score := 0
	var messages []string

	if dev := info.DevHoldingsPercentage; dev != nil && *dev > highDevHoldingPct {
		score += 20
		messages = append(messages, fmt.Sprintf("High dev holdings: %s%%", formatFloat(*dev)))
	}
	if info.MigrationStatus == models.MigrationNotMigrated {
		score += 10
		messages = append(messages, "Migration not completed")
	}

	if len(messages) == 0 {
		messages = append(messages, "Pump.fun token appears normal")
	}

	return newNote(RulePumpFun, score, messages, 20, 10)
}

// CheckListings scores presence on the major Solana DEXs.
func CheckListings(pairs []models.Pair) models.RiskNote {
	if len(pairs) == 0 {
		return models.RiskNote{
			RuleName: RuleListings,
			Score:    20,
			Message:  "No trading pairs found",
			Severity: models.SeverityMedium,
		}
	}

	found := make(map[string]struct{})
	for _, p := range pairs {
		id := strings.ToLower(strings.TrimSpace(p.DexID))
		if _, ok := MajorDEXs[id]; ok {
			found[id] = struct{}{}
		}
	}

	score := 0
	var messages []string

	switch len(found) {
	case 0:
		score += 10
		messages = append(messages, "Not on major DEXs")
	case 1:
		score += 5
		messages = append(messages, "Limited DEX presence")
	default:
		messages = append(messages, "Good DEX presence")
	}

	return newNote(RuleListings, score, messages, 15, 5)
}

// CheckRugCheck maps the RugCheck risk level onto a note.
func CheckRugCheck(data *models.RugCheckData) models.RiskNote {
	if data == nil {
		return models.RiskNote{
			RuleName: RuleRugCheck,
			Score:    0,
			Message:  "RugCheck data not available",
			Severity: models.SeverityLow,
		}
	}

	switch strings.ToLower(strings.TrimSpace(data.RiskLevel)) {
	case "high":
		return models.RiskNote{RuleName: RuleRugCheck, Score: 20, Message: "RugCheck reports HIGH RISK", Severity: models.SeverityHigh}
	case "medium":
		return models.RiskNote{RuleName: RuleRugCheck, Score: 10, Message: "RugCheck reports MEDIUM RISK", Severity: models.SeverityMedium}
	default:
		return models.RiskNote{RuleName: RuleRugCheck, Score: 0, Message: "RugCheck reports LOW RISK", Severity: models.SeverityLow}
	}
}

// newNote clamps the summed score once and derives severity from the clamped value.
func newNote(rule string, score int, messages []string, highAt, mediumAt int) models.RiskNote {
	score = clampScore(score)
	return models.RiskNote{
		RuleName: rule,
		Score:    score,
		Message:  strings.Join(messages, "; "),
		Severity: severityFor(score, highAt, mediumAt),
	}
}

func severityFor(score, highAt, mediumAt int) models.Severity {
	switch {
	case score >= highAt:
		return models.SeverityHigh
	case score >= mediumAt:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func clampScore(score int) int {
	return min(100, max(0, score))
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
