// Package engine wires configuration into a ready analyzer together with the
// optional shared infrastructure (Redis, ClickHouse, flags, pub/sub, AI).
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/sol-safety-check/internal/ai"
	"github.com/aman-zulfiqar/sol-safety-check/internal/analyzer"
	"github.com/aman-zulfiqar/sol-safety-check/internal/cache"
	"github.com/aman-zulfiqar/sol-safety-check/internal/config"
	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/datasource"
	"github.com/aman-zulfiqar/sol-safety-check/internal/flags"
	"github.com/aman-zulfiqar/sol-safety-check/internal/jupiter"
	"github.com/aman-zulfiqar/sol-safety-check/internal/metrics"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"github.com/aman-zulfiqar/sol-safety-check/internal/rpc"
	"github.com/aman-zulfiqar/sol-safety-check/internal/storage"
	"github.com/sirupsen/logrus"
)

// Engine owns the analyzer and every connection it was built with
type Engine struct {
	Analyzer *analyzer.Analyzer
	Metrics  *metrics.Metrics
	Jupiter  *jupiter.Client
	Flags    *flags.Store           // nil without Redis
	PubSub   *cache.PubSubManager   // nil without Redis
	AI       *ai.Agent              // nil without an OpenRouter key
	History  *cache.ClickHouseStore // nil without ClickHouse

	redis  *cache.RedisCache
	logger *logrus.Logger
}

// Options select which shared services to connect
type Options struct {
	// Shared connects Redis and ClickHouse when their addresses are configured.
	// Without it reports are cached in process only.
	Shared bool
	// AI creates the LLM agent when an OpenRouter key is configured.
	AI     bool
	Logger *logrus.Logger
}

// NewEngine creates the analyzer with all dependencies
func NewEngine(ctx context.Context, cfg *config.Config, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	logger := opts.Logger
	e := &Engine{logger: logger, Metrics: metrics.New()}

	// 1. Jupiter client, shared by the quote probe and the route endpoint
	e.Jupiter = jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey, cfg.HTTPTimeout)

	// 2. Providers
	providers, err := BuildProviders(cfg, e.Jupiter, logger)
	if err != nil {
		return nil, err
	}

	// 3. Report cache: Redis when shared, otherwise in process
	var reportCache storage.ReportCache = cache.NewMemoryCache(cfg.ReportCacheTTL)
	var publisher storage.ReportPublisher
	var gate analyzer.FlagGate
	if opts.Shared && cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		e.redis = rc
		reportCache = rc

		// 4. Flags and pub/sub share the Redis connection
		fs, err := flags.NewStore(rc.Client())
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to create flags store: %w", err)
		}
		e.Flags = fs
		gate = fs
		e.PubSub = cache.NewPubSubManager(rc.Client())
		publisher = e.PubSub
	}

	// 5. Report history
	var store storage.ReportStore
	if opts.Shared && cfg.ClickHouseAddr != "" {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.History = ch
		store = ch
	}

	// 6. AI agent, optional and never fatal
	if opts.AI && cfg.OpenRouterAPIKey != "" {
		agentCfg := e.AgentConfig(cfg)
		if !opts.Shared {
			agentCfg.ClickHouseAddr = ""
		}
		agent, err := ai.NewAgent(ctx, agentCfg)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			e.AI = agent
		}
	}

	// 7. Analyzer
	e.Analyzer = analyzer.New(analyzer.Config{
		Providers: providers,
		Scorer:    risk.NewScorer(risk.ScorerConfig{}),
		Cache:     reportCache,
		CacheTTL:  cfg.ReportCacheTTL,
		Store:     store,
		Publisher: publisher,
		Flags:     gate,
		Metrics:   e.Metrics,
		Timeout:   cfg.AnalysisTimeout,
		Logger:    logger,
	})

	logger.WithFields(logrus.Fields{
		"providers": e.Analyzer.ProviderNames(),
		"redis":     e.redis != nil,
		"history":   e.History != nil,
		"ai":        e.AI != nil,
	}).Info("engine ready")

	return e, nil
}

// AgentConfig is the AI configuration derived from cfg, used for per-request model overrides.
func (e *Engine) AgentConfig(cfg *config.Config) ai.AgentConfig {
	return ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.AIModel,
		Logger:             e.logger,
	}
}

// BuildProviders creates the configured providers in run order.
func BuildProviders(cfg *config.Config, quoter datasource.Quoter, logger *logrus.Logger) ([]datasource.Provider, error) {
	httpCfg := func(baseURL string) datasource.HTTPConfig {
		return datasource.HTTPConfig{
			BaseURL:      baseURL,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		}
	}

	var out []datasource.Provider
	for _, name := range cfg.EnabledProviders() {
		switch name {
		case constants.ProviderDexScreener:
			out = append(out, datasource.NewDexScreener(httpCfg(constants.DexScreenerBaseURL)))
		case constants.ProviderBirdeye:
			if cfg.BirdeyeAPIKey == "" {
				logger.Debug("BIRDEYE_API_KEY not set, birdeye will return no data")
			}
			out = append(out, datasource.NewBirdeye(httpCfg(constants.BirdeyeBaseURL), cfg.BirdeyeAPIKey))
		case constants.ProviderRugCheck:
			if cfg.RugCheckJWT == "" {
				logger.Debug("RUGCHECK_JWT not set, rugcheck will return no data")
			}
			out = append(out, datasource.NewRugCheck(httpCfg(constants.RugCheckBaseURL), cfg.RugCheckJWT))
		case constants.ProviderPumpFun:
			out = append(out, datasource.NewPumpFun(httpCfg(constants.MoralisBaseURL), cfg.MoralisAPIKey))
		case constants.ProviderSolanaChain:
			client := rpc.NewClient(rpc.ClientConfig{
				BaseURL:      cfg.RPCUrl,
				Timeout:      cfg.HTTPTimeout,
				MaxRetries:   cfg.MaxRetries,
				RetryBackoff: cfg.RetryBackoff,
				RequestDelay: cfg.RPCRequestDelay,
				Logger:       logger,
			})
			out = append(out, datasource.NewSolanaChain(client, logger))
		case constants.ProviderJupiter:
			if quoter == nil {
				return nil, fmt.Errorf("jupiter provider needs a quote client")
			}
			out = append(out, datasource.NewJupiter(quoter))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return out, nil
}

// Close cleans up all resources
func (e *Engine) Close() error {
	var errs []error

	if e.AI != nil {
		if err := e.AI.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ai agent close: %w", err))
		}
	}

	if e.History != nil {
		if err := e.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse close: %w", err))
		}
	}

	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	return errors.Join(errs...)
}
