package risk

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func pairOn(dex string, liquidity float64) models.Pair {
	return models.Pair{DexID: dex, LiquidityUSD: ptr(liquidity)}
}

func TestCheckAuthorities(t *testing.T) {
	t.Run("no metadata", func(t *testing.T) {
		note := CheckAuthorities(nil)
		assert.Equal(t, RuleAuthorities, note.RuleName)
		assert.Equal(t, 10, note.Score)
		assert.Equal(t, models.SeverityMedium, note.Severity)
	})

	t.Run("both renounced", func(t *testing.T) {
		note := CheckAuthorities(&models.TokenMeta{
			Address:                    "So11111111111111111111111111111111111111112",
			IsMintAuthorityRenounced:   true,
			IsFreezeAuthorityRenounced: true,
		})
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, models.SeverityLow, note.Severity)
		assert.Equal(t, "Authorities properly renounced", note.Message)
	})

	t.Run("neither renounced", func(t *testing.T) {
		note := CheckAuthorities(&models.TokenMeta{
			MintAuthority:   ptr("MintAuth1111111111111111111111111111111111"),
			FreezeAuthority: ptr("FreezeAuth11111111111111111111111111111111"),
		})
		assert.Equal(t, 40, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
		assert.Equal(t, "Mint authority not renounced; Freeze authority present", note.Message)
	})

	t.Run("renounced flag wins over address", func(t *testing.T) {
		note := CheckAuthorities(&models.TokenMeta{
			MintAuthority:            ptr("MintAuth1111111111111111111111111111111111"),
			IsMintAuthorityRenounced: true,
			FreezeAuthority:          ptr("FreezeAuth11111111111111111111111111111111"),
		})
		assert.Equal(t, 15, note.Score)
		assert.Equal(t, models.SeverityMedium, note.Severity)
	})
}

func TestCheckLiquidity(t *testing.T) {
	t.Run("no pairs", func(t *testing.T) {
		note := CheckLiquidity(nil, nil)
		assert.Equal(t, 25, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
		assert.Equal(t, "No trading pairs found", note.Message)
	})

	t.Run("low liquidity and unlocked", func(t *testing.T) {
		note := CheckLiquidity([]models.Pair{pairOn("raydium", 1000)}, &models.LiquidityLock{IsLocked: false})
		assert.Equal(t, 45, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
		assert.Equal(t, "Low liquidity: $1,000; No liquidity lock detected", note.Message)
	})

	t.Run("uses deepest pool", func(t *testing.T) {
		pairs := []models.Pair{pairOn("raydium", 500), pairOn("orca", 5000), {DexID: "meteora"}}
		note := CheckLiquidity(pairs, &models.LiquidityLock{IsLocked: true})
		assert.Equal(t, 10, note.Score)
		assert.Contains(t, note.Message, "Moderate liquidity: $5,000")
	})

	tests := []struct {
		name  string
		lock  *models.LiquidityLock
		score int
		sev   models.Severity
	}{
		{"unknown lock", nil, 10, models.SeverityLow},
		{"unlocked", &models.LiquidityLock{}, 20, models.SeverityMedium},
		{"partially locked", &models.LiquidityLock{IsLocked: true, LockedPercentage: ptr(50.0)}, 15, models.SeverityMedium},
		{"short lock", &models.LiquidityLock{IsLocked: true, LockedPercentage: ptr(80.0), LockDurationDays: ptr(3)}, 10, models.SeverityLow},
		{"partial lock shadows duration", &models.LiquidityLock{IsLocked: true, LockedPercentage: ptr(50.0), LockDurationDays: ptr(3)}, 15, models.SeverityMedium},
		{"healthy lock", &models.LiquidityLock{IsLocked: true, LockedPercentage: ptr(80.0), LockDurationDays: ptr(365)}, 0, models.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := CheckLiquidity([]models.Pair{pairOn("raydium", 50_000)}, tt.lock)
			assert.Equal(t, tt.score, note.Score)
			assert.Equal(t, tt.sev, note.Severity)
		})
	}
}

func TestCheckTradeability(t *testing.T) {
	t.Run("no info", func(t *testing.T) {
		note := CheckTradeability(nil)
		assert.Equal(t, 15, note.Score)
		assert.Equal(t, models.SeverityMedium, note.Severity)
	})

	t.Run("cannot sell and honeypot are additive", func(t *testing.T) {
		note := CheckTradeability(&models.TradingInfo{CanBuy: ptr(true), CanSell: ptr(false), IsHoneypot: true})
		assert.Equal(t, 70, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
	})

	t.Run("clamped at 100", func(t *testing.T) {
		note := CheckTradeability(&models.TradingInfo{
			CanSell:           ptr(false),
			SellTaxPercentage: ptr(25.0),
			BuyTaxPercentage:  ptr(15.0),
			IsHoneypot:        true,
		})
		assert.Equal(t, 100, note.Score)
	})

	t.Run("moderate sell tax", func(t *testing.T) {
		note := CheckTradeability(&models.TradingInfo{CanBuy: ptr(true), CanSell: ptr(true), SellTaxPercentage: ptr(7.5)})
		assert.Equal(t, 15, note.Score)
		assert.Equal(t, "Moderate sell tax: 7.5%", note.Message)
	})

	t.Run("normal", func(t *testing.T) {
		note := CheckTradeability(&models.TradingInfo{CanBuy: ptr(true), CanSell: ptr(true), SellTaxPercentage: ptr(0.0), BuyTaxPercentage: ptr(0.0)})
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, "Trading appears normal", note.Message)
	})

	t.Run("unstated can_sell is unknown, not blocked", func(t *testing.T) {
		note := CheckTradeability(&models.TradingInfo{SellTaxPercentage: ptr(1.0)})
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, models.SeverityLow, note.Severity)
		assert.Equal(t, "Trading appears normal", note.Message)
	})

	t.Run("decoded without can_sell", func(t *testing.T) {
		var info models.TradingInfo
		require.NoError(t, json.Unmarshal([]byte(`{"sell_tax_percentage":1,"buy_tax_percentage":1}`), &info))
		assert.Nil(t, info.CanSell)
		note := CheckTradeability(&info)
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, models.SeverityLow, note.Severity)
	})
}

func whaleHolders() []models.HolderStat {
	holders := []models.HolderStat{{Address: "whale", Balance: decimal.NewFromInt(10_000)}}
	for i := 0; i < 99; i++ {
		holders = append(holders, models.HolderStat{Address: "small", Balance: decimal.NewFromInt(10)})
	}
	return holders
}

func TestCheckConcentration(t *testing.T) {
	t.Run("no holders", func(t *testing.T) {
		note := CheckConcentration(nil)
		assert.Equal(t, 20, note.Score)
		assert.Equal(t, models.SeverityMedium, note.Severity)
	})

	t.Run("whale", func(t *testing.T) {
		note := CheckConcentration(whaleHolders())
		assert.Equal(t, 55, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
	})

	t.Run("order independent", func(t *testing.T) {
		sorted := whaleHolders()
		reversed := whaleHolders()
		reversed[0], reversed[len(reversed)-1] = reversed[len(reversed)-1], reversed[0]

		shuffled := whaleHolders()
		rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		want := CheckConcentration(sorted)
		assert.Equal(t, want, CheckConcentration(reversed))
		assert.Equal(t, want, CheckConcentration(shuffled))
	})

	t.Run("does not reorder input", func(t *testing.T) {
		holders := whaleHolders()
		holders[0], holders[99] = holders[99], holders[0]
		CheckConcentration(holders)
		assert.Equal(t, "whale", holders[99].Address)
	})

	t.Run("flat distribution", func(t *testing.T) {
		var holders []models.HolderStat
		for i := 0; i < 100; i++ {
			holders = append(holders, models.HolderStat{Balance: decimal.NewFromInt(1000)})
		}
		note := CheckConcentration(holders)
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, "Holder distribution appears healthy", note.Message)
	})

	t.Run("zero balances", func(t *testing.T) {
		note := CheckConcentration([]models.HolderStat{{Balance: decimal.Zero}})
		assert.Equal(t, 0, note.Score)
	})
}

func TestCheckAgeHype(t *testing.T) {
	t.Run("no pairs", func(t *testing.T) {
		note := CheckAgeHype(nil, testNow)
		assert.Equal(t, 10, note.Score)
		assert.Equal(t, models.SeverityLow, note.Severity)
	})

	t.Run("very new with hype volume", func(t *testing.T) {
		pairs := []models.Pair{
			{PairCreatedAt: ptr(testNow.Add(-2 * time.Hour)), Volume24hUSD: ptr(2_000_000.0)},
			{PairCreatedAt: ptr(testNow.Add(-1 * time.Hour))},
		}
		note := CheckAgeHype(pairs, testNow)
		assert.Equal(t, 20, note.Score)
		assert.Equal(t, models.SeverityHigh, note.Severity)
		assert.Equal(t, "Very new token: 2.0 hours old; High volume on new token (potential PnD)", note.Message)
	})

	t.Run("few days old is informational", func(t *testing.T) {
		pairs := []models.Pair{{PairCreatedAt: ptr(testNow.Add(-72 * time.Hour)), Volume24hUSD: ptr(5_000_000.0)}}
		note := CheckAgeHype(pairs, testNow)
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, "New token: 3.0 days old", note.Message)
	})

	t.Run("unknown creation time", func(t *testing.T) {
		note := CheckAgeHype([]models.Pair{{DexID: "raydium"}}, testNow)
		assert.Equal(t, 0, note.Score)
		assert.Equal(t, "Age and volume patterns appear normal", note.Message)
	})
}

func TestCheckPumpFun(t *testing.T) {
	assert.Equal(t, 0, CheckPumpFun(nil).Score)
	assert.Equal(t, "Not a Pump.fun token", CheckPumpFun(&models.PumpFunInfo{}).Message)

	note := CheckPumpFun(&models.PumpFunInfo{
		IsPumpFunToken:        true,
		DevHoldingsPercentage: ptr(25.0),
		MigrationStatus:       models.MigrationNotMigrated,
	})
	assert.Equal(t, 30, note.Score)
	assert.Equal(t, models.SeverityHigh, note.Severity)

	note = CheckPumpFun(&models.PumpFunInfo{IsPumpFunToken: true, MigrationStatus: models.MigrationNotMigrated})
	assert.Equal(t, 10, note.Score)
	assert.Equal(t, models.SeverityMedium, note.Severity)

	note = CheckPumpFun(&models.PumpFunInfo{IsPumpFunToken: true, MigrationStatus: "unknown"})
	assert.Equal(t, 0, note.Score)
	assert.Equal(t, "Pump.fun token appears normal", note.Message)
}

func TestCheckListings(t *testing.T) {
	tests := []struct {
		name  string
		pairs []models.Pair
		score int
		sev   models.Severity
		msg   string
	}{
		{"no pairs", nil, 20, models.SeverityMedium, "No trading pairs found"},
		{"three majors", []models.Pair{{DexID: "raydium"}, {DexID: "orca"}, {DexID: "jupiter"}}, 0, models.SeverityLow, "Good DEX presence"},
		{"unrecognized dex", []models.Pair{{DexID: "somedex"}}, 10, models.SeverityMedium, "Not on major DEXs"},
		{"one major twice", []models.Pair{{DexID: "Raydium"}, {DexID: "raydium"}}, 5, models.SeverityMedium, "Limited DEX presence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := CheckListings(tt.pairs)
			assert.Equal(t, tt.score, note.Score)
			assert.Equal(t, tt.sev, note.Severity)
			assert.Equal(t, tt.msg, note.Message)
		})
	}
}

func TestCheckRugCheck(t *testing.T) {
	note := CheckRugCheck(nil)
	assert.Equal(t, 0, note.Score)
	assert.Equal(t, models.SeverityLow, note.Severity)

	note = CheckRugCheck(&models.RugCheckData{RiskLevel: "HIGH"})
	assert.Equal(t, 20, note.Score)
	assert.Equal(t, models.SeverityHigh, note.Severity)

	note = CheckRugCheck(&models.RugCheckData{RiskLevel: "medium"})
	assert.Equal(t, 10, note.Score)
	assert.Equal(t, models.SeverityMedium, note.Severity)

	note = CheckRugCheck(&models.RugCheckData{RiskLevel: "whatever"})
	assert.Equal(t, 0, note.Score)
}

func TestSeverityFollowsScore(t *testing.T) {
	rank := map[models.Severity]int{models.SeverityLow: 0, models.SeverityMedium: 1, models.SeverityHigh: 2}
	thresholds := [][2]int{{30, 15}, {20, 10}, {15, 5}}

	for _, th := range thresholds {
		prev := models.SeverityLow
		for s := 0; s <= 100; s++ {
			sev := severityFor(s, th[0], th[1])
			require.GreaterOrEqual(t, rank[sev], rank[prev], "score %d", s)
			prev = sev
		}
	}
}
