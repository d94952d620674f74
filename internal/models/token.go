package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenMeta is the metadata snapshot for a mint, built once per analysis run.
type TokenMeta struct {
	Address         string           `json:"address"`
	Symbol          string           `json:"symbol,omitempty"`
	Name            string           `json:"name,omitempty"`
	Decimals        *int             `json:"decimals,omitempty"`
	Supply          *decimal.Decimal `json:"supply,omitempty"`
	MintAuthority   *string          `json:"mint_authority,omitempty"`
	FreezeAuthority *string          `json:"freeze_authority,omitempty"`

	// false when unknown
	IsMintAuthorityRenounced   bool `json:"is_mint_authority_renounced"`
	IsFreezeAuthorityRenounced bool `json:"is_freeze_authority_renounced"`
}

// TokenRef identifies one side of a trading pair.
type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

// Pair is one DEX trading venue for the token.
// Providers populate different subsets, so every numeric field is nullable.
type Pair struct {
	PairAddress     string     `json:"pair_address"`
	BaseToken       TokenRef   `json:"base_token"`
	QuoteToken      TokenRef   `json:"quote_token"`
	PriceUSD        *float64   `json:"price_usd,omitempty"`
	PriceNative     *float64   `json:"price_native,omitempty"`
	LiquidityUSD    *float64   `json:"liquidity_usd,omitempty"`
	LiquidityNative *float64   `json:"liquidity_native,omitempty"`
	FDVUSD          *float64   `json:"fdv_usd,omitempty"`
	Volume24hUSD    *float64   `json:"volume_24h_usd,omitempty"`
	Volume24hNative *float64   `json:"volume_24h_native,omitempty"`
	Txns24h         *int       `json:"txns_24h,omitempty"`
	PairCreatedAt   *time.Time `json:"pair_created_at,omitempty"`
	DexID           string     `json:"dex_id,omitempty"`
	Router          string     `json:"router,omitempty"`
}

// HolderStat is a single token account holding the mint.
type HolderStat struct {
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	Percentage decimal.Decimal `json:"percentage"`

	// Not populated yet; reserved for insider/dev-wallet enrichment.
	IsInsider   bool `json:"is_insider"`
	IsDevWallet bool `json:"is_dev_wallet"`
}

// LiquidityLock describes whether pool liquidity is locked and for how long.
type LiquidityLock struct {
	IsLocked         bool       `json:"is_locked"`
	LockedPercentage *float64   `json:"locked_percentage,omitempty"`
	LockDurationDays *int       `json:"lock_duration_days,omitempty"`
	LockProvider     string     `json:"lock_provider,omitempty"`
	LockExpiry       *time.Time `json:"lock_expiry,omitempty"`
}

// TradingInfo holds buy/sell restrictions and taxes.
type TradingInfo struct {
	CanBuy            *bool    `json:"can_buy,omitempty"` // nil: unknown
	CanSell           *bool    `json:"can_sell,omitempty"`
	BuyTaxPercentage  *float64 `json:"buy_tax_percentage,omitempty"`
	SellTaxPercentage *float64 `json:"sell_tax_percentage,omitempty"`
	IsHoneypot        bool     `json:"is_honeypot"`
	SlippageTolerance *float64 `json:"slippage_tolerance,omitempty"`
}

// Pump.fun migration states. NotMigrated means the token is still on the bonding curve.
const (
	MigrationNotMigrated = "not_migrated"
	MigrationUnknown     = "unknown"
)

// PumpFunInfo holds launch-platform facts for Pump.fun tokens.
type PumpFunInfo struct {
	IsPumpFunToken        bool       `json:"is_pump_fun_token"`
	CreationTime          *time.Time `json:"creation_time,omitempty"`
	DevWallet             string     `json:"dev_wallet,omitempty"`
	MigrationStatus       string     `json:"migration_status,omitempty"`
	DevHoldingsPercentage *float64   `json:"dev_holdings_percentage,omitempty"`
}

// RugCheckData is the external risk feed reduced to what the scorer consumes.
type RugCheckData struct {
	RiskLevel string         `json:"risk_level"`
	Score     *float64       `json:"score,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}
