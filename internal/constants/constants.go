package constants

import "time"

// Provider names, as used in data_sources_used, the PROVIDERS setting and flag keys
const (
	ProviderDexScreener = "dexscreener"
	ProviderBirdeye     = "birdeye"
	ProviderRugCheck    = "rugcheck"
	ProviderPumpFun     = "pumpfun"
	ProviderSolanaChain = "solana_chain"
	ProviderJupiter     = "jupiter"
)

// DefaultProviders run when nothing else is configured. Jupiter is opt-in.
var DefaultProviders = []string{
	ProviderDexScreener,
	ProviderBirdeye,
	ProviderRugCheck,
	ProviderPumpFun,
	ProviderSolanaChain,
}

// Display names used in warnings ("<name> failed: ...")
var ProviderDisplayNames = map[string]string{
	ProviderDexScreener: "DexScreener",
	ProviderBirdeye:     "Birdeye",
	ProviderRugCheck:    "RugCheck",
	ProviderPumpFun:     "Pump.fun",
	ProviderSolanaChain: "Solana chain",
	ProviderJupiter:     "Jupiter",
}

// Upstream base URLs
const (
	DexScreenerBaseURL = "https://api.dexscreener.com"
	BirdeyeBaseURL     = "https://public-api.birdeye.so"
	RugCheckBaseURL    = "https://api.rugcheck.xyz"
	JupiterBaseURL     = "https://api.jup.ag/swap/v1"
	SolanaMainnetRPC   = "https://api.mainnet-beta.solana.com"
	MoralisBaseURL     = "https://solana-gateway.moralis.io"
)

// SPL token programs that may own a mint account
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// Redis keys
const (
	RedisKeyReportPrefix = "report:"
	FlagProviderPrefix   = "provider."
)

// Limits
const (
	MaxTopHolders     = 50
	MaxHistoryRows    = 100
	DefaultHistoryCap = 20
)

// Rate limiting
const (
	// Public mainnet RPC throttles bursts from one client
	DefaultRPCRequestDelay = 250 * time.Millisecond
	DefaultAnalysisTimeout = 30 * time.Second
	DefaultReportCacheTTL  = 2 * time.Minute
)

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
