package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	// RPC settings
	RPCUrl          string        `validate:"required,url"`
	RPCRequestDelay time.Duration `validate:"gte=0"`

	// HTTP client settings
	HTTPTimeout  time.Duration `validate:"gt=0"`
	MaxRetries   int           `validate:"gte=0,lte=10"`
	RetryBackoff time.Duration `validate:"gt=0"`

	// Analysis
	AnalysisTimeout time.Duration `validate:"gt=0"`
	Providers       []string      `validate:"dive,oneof=dexscreener birdeye rugcheck pumpfun solana_chain jupiter"`

	// Provider credentials
	BirdeyeAPIKey string
	RugCheckJWT   string
	MoralisAPIKey string

	// Jupiter quote probe, opt-in
	JupiterEnabled bool
	JupiterBaseURL string `validate:"omitempty,url"`
	JupiterAPIKey  string

	// Redis settings; empty address means in-process cache and no flags
	RedisAddr      string        `validate:"omitempty,hostname_port"`
	RedisPassword  string
	ReportCacheTTL time.Duration `validate:"gt=0"`

	// ClickHouse settings; empty address disables report history
	ClickHouseAddr     string `validate:"omitempty,hostname_port"`
	ClickHouseDatabase string `validate:"required_with=ClickHouseAddr"`
	ClickHouseUsername string
	ClickHousePassword string

	// AI
	OpenRouterAPIKey string
	AIModel          string

	// API server
	APIAddr string `validate:"required"`
	APIKey  string
	DevMode bool

	// Watchlist re-scoring
	Watchlist     []string
	WatchInterval time.Duration `validate:"gt=0"`

	LogLevel string `validate:"oneof=trace debug info warn warning error"`
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:          getEnv("SOLANA_RPC_URL", constants.SolanaMainnetRPC),
		RPCRequestDelay: getDurationEnv("RPC_REQUEST_DELAY", constants.DefaultRPCRequestDelay),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 15*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 2),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", time.Second),

		// Analysis
		AnalysisTimeout: getDurationEnv("ANALYSIS_TIMEOUT", constants.DefaultAnalysisTimeout),
		Providers:       getListEnv("PROVIDERS", constants.DefaultProviders),

		// Providers
		BirdeyeAPIKey: getEnv("BIRDEYE_API_KEY", ""),
		RugCheckJWT:   getEnv("RUGCHECK_JWT", ""),
		MoralisAPIKey: getEnv("MORALIS_API_KEY", ""),

		// Jupiter
		JupiterEnabled: getBoolEnv("JUPITER_ENABLED", false),
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", constants.JupiterBaseURL),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),

		// Redis
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		ReportCacheTTL: getDurationEnv("REPORT_CACHE_TTL", constants.DefaultReportCacheTTL),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "openai/gpt-4.1-mini"),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Watchlist
		Watchlist:     getRawListEnv("WATCHLIST"),
		WatchInterval: getDurationEnv("WATCH_INTERVAL", 10*time.Minute),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate checks the loaded values and reports every offending field at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// EnabledProviders is the provider list with Jupiter appended when the quote
// probe is switched on.
func (c *Config) EnabledProviders() []string {
	out := make([]string, 0, len(c.Providers)+1)
	hasJupiter := false
	for _, p := range c.Providers {
		if p == constants.ProviderJupiter {
			hasJupiter = true
		}
		out = append(out, p)
	}
	if c.JupiterEnabled && !hasJupiter {
		out = append(out, constants.ProviderJupiter)
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getListEnv reads a comma separated list, lower-cased with blanks dropped.
func getListEnv(key string, defaultVal []string) []string {
	if os.Getenv(key) == "" {
		return append([]string(nil), defaultVal...)
	}
	out := getRawListEnv(key)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// getRawListEnv splits a comma separated value keeping case, which base58 needs.
func getRawListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
