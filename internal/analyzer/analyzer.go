// Package analyzer runs the fetch-then-score pipeline for one mint: it fans
// out to the configured providers, folds their results into a single input
// and hands it to the risk scorer.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/address"
	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/datasource"
	"github.com/aman-zulfiqar/sol-safety-check/internal/flags"
	"github.com/aman-zulfiqar/sol-safety-check/internal/metrics"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"github.com/aman-zulfiqar/sol-safety-check/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidAddress     = errors.New("invalid solana address")
	ErrTimeout            = errors.New("analysis timed out")
	ErrHistoryUnavailable = errors.New("report history is not configured")
)

// FlagGate decides whether a provider may run.
type FlagGate interface {
	Enabled(ctx context.Context, key string, def bool) (bool, error)
}

// Config wires the analyzer. Only Providers is required; every other
// collaborator is optional.
type Config struct {
	Providers []datasource.Provider
	Scorer    *risk.Scorer

	Cache     storage.ReportCache
	CacheTTL  time.Duration
	Store     storage.ReportStore
	Publisher storage.ReportPublisher
	Flags     FlagGate
	Metrics   *metrics.Metrics

	// Timeout bounds the fetch phase of one analysis.
	Timeout time.Duration
	Logger  *logrus.Logger
}

// Options tune a single Analyze call.
type Options struct {
	// Providers restricts the run to these provider names. Empty means all.
	Providers []string
	// Fresh skips the report cache lookup.
	Fresh bool
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	providers []datasource.Provider
	scorer    *risk.Scorer
	cache     storage.ReportCache
	cacheTTL  time.Duration
	store     storage.ReportStore
	publisher storage.ReportPublisher
	flags     FlagGate
	metrics   *metrics.Metrics
	timeout   time.Duration
	logger    *logrus.Logger
}

func New(cfg Config) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = risk.NewScorer(risk.ScorerConfig{})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultAnalysisTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.DefaultReportCacheTTL
	}

	return &Analyzer{
		providers: cfg.Providers,
		scorer:    cfg.Scorer,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		flags:     cfg.Flags,
		metrics:   cfg.Metrics,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// ProviderNames lists the configured providers in run order.
func (a *Analyzer) ProviderNames() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

type outcome struct {
	result *datasource.Result
	err    error
}

// Analyze validates mint, gathers provider data and scores it. Provider
// failures become report warnings; only an invalid address, the overall
// timeout or caller cancellation produce an error.
func (a *Analyzer) Analyze(ctx context.Context, mint string, opts Options) (*models.RiskReport, error) {
	mint = strings.TrimSpace(mint)
	if err := address.Validate(mint); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	start := time.Now()
	log := a.logger.WithField("mint", mint)

	// Cached reports come from full runs, so provider subsets always go upstream.
	useCache := a.cache != nil && len(opts.Providers) == 0
	if useCache && !opts.Fresh {
		report, err := a.cache.GetReport(ctx, mint)
		switch {
		case err == nil:
			a.metrics.ObserveCache(metrics.CacheHit)
			log.Debug("serving cached report")
			return report, nil
		case errors.Is(err, storage.ErrCacheMiss):
			a.metrics.ObserveCache(metrics.CacheMiss)
		default:
			a.metrics.ObserveCache(metrics.CacheMiss)
			log.WithError(err).Warn("report cache lookup failed")
		}
	} else if a.cache != nil {
		a.metrics.ObserveCache(metrics.CacheBypassed)
	}

	selected := a.selectProviders(ctx, opts.Providers)

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	outcomes := make([]outcome, len(selected))
	g, gctx := errgroup.WithContext(fetchCtx)
	for i, p := range selected {
		g.Go(func() error {
			began := time.Now()
			res, err := p.Fetch(gctx, mint)
			outcomes[i] = outcome{result: res, err: err}

			switch {
			case err != nil:
				a.metrics.ObserveProvider(p.Name(), metrics.OutcomeError, time.Since(began))
				log.WithError(err).WithField("provider", p.Name()).Warn("provider fetch failed")
			case res.Empty():
				a.metrics.ObserveProvider(p.Name(), metrics.OutcomeEmpty, time.Since(began))
			default:
				a.metrics.ObserveProvider(p.Name(), metrics.OutcomeOK, time.Since(began))
			}
			// Failures never cancel sibling fetches.
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		a.metrics.ObserveTimeout()
		log.WithField("timeout", a.timeout).Warn("analysis timed out before scoring")
		return nil, fmt.Errorf("%w after %s", ErrTimeout, a.timeout)
	}

	input := merge(mint, selected, outcomes)
	report := a.scorer.Assess(input)

	runID := uuid.NewString()
	a.persist(ctx, runID, report, useCache, log)
	a.metrics.ObserveAnalysis(string(report.RiskLevel), report.OverallScore, time.Since(start))

	log.WithFields(logrus.Fields{
		"run_id":   runID,
		"score":    report.OverallScore,
		"level":    report.RiskLevel,
		"sources":  report.DataSourcesUsed,
		"warnings": len(report.Warnings),
		"took":     time.Since(start).Round(time.Millisecond),
	}).Info("analysis complete")

	return report, nil
}

// History lists stored analyses of mint, newest first.
func (a *Analyzer) History(ctx context.Context, mint string, limit int) ([]models.HistoryEntry, error) {
	mint = strings.TrimSpace(mint)
	if err := address.Validate(mint); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if a.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return a.store.RecentReports(ctx, mint, limit)
}

func (a *Analyzer) selectProviders(ctx context.Context, requested []string) []datasource.Provider {
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			want[name] = true
		}
	}

	selected := make([]datasource.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if len(want) > 0 && !want[p.Name()] {
			continue
		}
		if a.flags != nil {
			on, err := a.flags.Enabled(ctx, flags.ProviderKey(p.Name()), true)
			if err != nil {
				a.logger.WithError(err).WithField("provider", p.Name()).Warn("flag lookup failed, keeping provider enabled")
			} else if !on {
				a.metrics.ObserveProvider(p.Name(), metrics.OutcomeGated, 0)
				continue
			}
		}
		selected = append(selected, p)
	}
	return selected
}

func (a *Analyzer) persist(ctx context.Context, runID string, report *models.RiskReport, useCache bool, log *logrus.Entry) {
	if useCache {
		if err := a.cache.SetReport(ctx, report, a.cacheTTL); err != nil {
			log.WithError(err).Warn("failed to cache report")
		}
	}
	if a.store != nil {
		if err := a.store.InsertReport(ctx, runID, report); err != nil {
			log.WithError(err).Warn("failed to record report history")
		}
	}
	if a.publisher != nil {
		event := &models.ReportEvent{
			RunID:        runID,
			MintAddress:  report.MintAddress,
			OverallScore: report.OverallScore,
			RiskLevel:    report.RiskLevel,
			Verdict:      report.Verdict,
			GeneratedAt:  report.GeneratedAt,
		}
		if err := a.publisher.PublishReport(ctx, event); err != nil {
			log.WithError(err).Warn("failed to publish report")
		}
	}
}

// merge folds provider results in provider order. Pairs and holders are
// concatenated; for single-valued fields the first provider to supply one wins.
func merge(mint string, providers []datasource.Provider, outcomes []outcome) risk.Input {
	in := risk.Input{
		Mint:            mint,
		DataSourcesUsed: []string{},
		Warnings:        []string{},
	}

	for i, p := range providers {
		o := outcomes[i]
		if o.err != nil {
			in.Warnings = append(in.Warnings, fmt.Sprintf("%s failed: %v", displayName(p.Name()), o.err))
			continue
		}
		if o.result.Empty() {
			continue
		}

		r := o.result
		in.DataSourcesUsed = append(in.DataSourcesUsed, p.Name())
		in.Pairs = append(in.Pairs, r.Pairs...)
		in.Holders = append(in.Holders, r.Holders...)
		if in.TokenMeta == nil {
			in.TokenMeta = r.TokenMeta
		}
		if in.LiquidityLock == nil {
			in.LiquidityLock = r.LiquidityLock
		}
		if in.TradingInfo == nil {
			in.TradingInfo = r.TradingInfo
		}
		if in.PumpFun == nil {
			in.PumpFun = r.PumpFun
		}
		if in.RugCheck == nil {
			in.RugCheck = r.RugCheck
		}
	}

	if len(in.Holders) > 1 {
		in.Holders = risk.SortHoldersByBalance(in.Holders)
	}
	in.TokenMeta = withPairNames(in.TokenMeta, mint, in.Pairs)
	return in
}

// withPairNames fills a missing symbol or name from the pair listing the mint
// as its base token. The original TokenMeta is left untouched.
func withPairNames(meta *models.TokenMeta, mint string, pairs []models.Pair) *models.TokenMeta {
	if meta == nil || (meta.Symbol != "" && meta.Name != "") {
		return meta
	}
	idx := slices.IndexFunc(pairs, func(p models.Pair) bool { return p.BaseToken.Address == mint })
	if idx < 0 {
		return meta
	}

	out := *meta
	if out.Symbol == "" {
		out.Symbol = pairs[idx].BaseToken.Symbol
	}
	if out.Name == "" {
		out.Name = pairs[idx].BaseToken.Name
	}
	return &out
}

func displayName(provider string) string {
	if name, ok := constants.ProviderDisplayNames[provider]; ok {
		return name
	}
	return provider
}
