package watch

import (
	"context"
	"errors"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/analyzer"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Analyzer is the part of the analyzer the watchlist needs.
type Analyzer interface {
	Analyze(ctx context.Context, mint string, opts analyzer.Options) (*models.RiskReport, error)
}

type Config struct {
	Analyzer    Analyzer
	Mints       []string
	Interval    time.Duration
	Concurrency int
	Logger      *logrus.Logger
}

// Watchlist re-scores a fixed set of mints on an interval. Each run is
// fresh, so the shared cache, history and report channels stay current.
type Watchlist struct {
	analyzer    Analyzer
	mints       []string
	interval    time.Duration
	concurrency int
	logger      *logrus.Logger
}

// SweepResult counts the outcome of one pass over the watchlist.
type SweepResult struct {
	Scored  int
	Failed  int
	Changed []string // mints whose risk level moved since the previous pass
}

func New(cfg Config) (*Watchlist, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("watchlist: analyzer is required")
	}
	if len(cfg.Mints) == 0 {
		return nil, errors.New("watchlist: no mints to watch")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("watchlist: interval must be positive")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Watchlist{
		analyzer:    cfg.Analyzer,
		mints:       cfg.Mints,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (w *Watchlist) Run(ctx context.Context) error {
	w.logger.WithFields(logrus.Fields{
		"mints":    len(w.mints),
		"interval": w.interval,
	}).Info("watchlist started")

	last := make(map[string]models.RiskLevel, len(w.mints))
	w.Sweep(ctx, last)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watchlist stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx, last)
		}
	}
}

// Sweep analyzes every mint once. last holds the previous level per mint
// and is updated in place.
func (w *Watchlist) Sweep(ctx context.Context, last map[string]models.RiskLevel) SweepResult {
	reports := make([]*models.RiskReport, len(w.mints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, mint := range w.mints {
		g.Go(func() error {
			report, err := w.analyzer.Analyze(gctx, mint, analyzer.Options{Fresh: true})
			if err != nil {
				w.logger.WithError(err).WithField("mint", mint).Warn("watchlist analysis failed")
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	var res SweepResult
	for i, report := range reports {
		if report == nil {
			res.Failed++
			continue
		}
		res.Scored++

		mint := w.mints[i]
		prev, seen := last[mint]
		last[mint] = report.RiskLevel
		if seen && prev != report.RiskLevel {
			res.Changed = append(res.Changed, mint)
			w.logger.WithFields(logrus.Fields{
				"mint":  mint,
				"from":  prev,
				"to":    report.RiskLevel,
				"score": report.OverallScore,
			}).Warn("risk level changed")
		}
	}

	w.logger.WithFields(logrus.Fields{
		"scored":  res.Scored,
		"failed":  res.Failed,
		"changed": len(res.Changed),
	}).Info("watchlist sweep complete")
	return res
}
