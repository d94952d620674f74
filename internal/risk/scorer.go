package risk

import (
	"maps"
	"math"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// DefaultRuleWeight applies to any rule without an entry in the weight table.
const DefaultRuleWeight = 0.10

// UnknownScore is the composite used when there is nothing to weigh.
const UnknownScore = 50

// Verdicts.
const (
	VerdictSafe     = "Likely OK (still DYOR)"
	VerdictCaution  = "Caution"
	VerdictHighRisk = "High Risk / Avoid"
)

// Weights maps a rule name to its weight in the composite score.
type Weights map[string]float64

// DefaultWeights returns a fresh copy of the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		RuleAuthorities:   0.20,
		RuleLiquidity:     0.25,
		RuleTradeability:  0.20,
		RuleConcentration: 0.15,
		RuleAgeHype:       0.10,
		RulePumpFun:       0.05,
		RuleListings:      0.05,
	}
}

// ScorerConfig holds optional overrides for a Scorer.
type ScorerConfig struct {
	// Weights replaces the default table. It is copied on construction.
	Weights Weights
	// Now is the clock used for rule evaluation and GeneratedAt.
	Now func() time.Time
}

// Input is everything gathered about one token before scoring.
type Input struct {
	Mint            string
	TokenMeta       *models.TokenMeta
	Pairs           []models.Pair
	Holders         []models.HolderStat
	LiquidityLock   *models.LiquidityLock
	TradingInfo     *models.TradingInfo
	PumpFun         *models.PumpFunInfo
	RugCheck        *models.RugCheckData
	DataSourcesUsed []string
	Warnings        []string
}

type rule struct {
	name    string
	applies func(in *Input) bool
	eval    func(in *Input, now time.Time) models.RiskNote
}

func always(*Input) bool { return true }

// rules run in this order and the report keeps it.
var rules = []rule{
	{RuleAuthorities, always, func(in *Input, _ time.Time) models.RiskNote { return CheckAuthorities(in.TokenMeta) }},
	{RuleLiquidity, always, func(in *Input, _ time.Time) models.RiskNote { return CheckLiquidity(in.Pairs, in.LiquidityLock) }},
	{RuleTradeability, always, func(in *Input, _ time.Time) models.RiskNote { return CheckTradeability(in.TradingInfo) }},
	{RuleConcentration, always, func(in *Input, _ time.Time) models.RiskNote { return CheckConcentration(in.Holders) }},
	{RuleAgeHype, always, func(in *Input, now time.Time) models.RiskNote { return CheckAgeHype(in.Pairs, now) }},
	{RulePumpFun, always, func(in *Input, _ time.Time) models.RiskNote { return CheckPumpFun(in.PumpFun) }},
	{RuleListings, always, func(in *Input, _ time.Time) models.RiskNote { return CheckListings(in.Pairs) }},
	{RuleRugCheck, func(in *Input) bool { return in.RugCheck != nil }, func(in *Input, _ time.Time) models.RiskNote { return CheckRugCheck(in.RugCheck) }},
}

// Scorer runs the rule set and folds the notes into a RiskReport.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
	now     func() time.Time
}

// NewScorer creates a Scorer. A zero ScorerConfig gives the default weights
// and the wall clock.
func NewScorer(cfg ScorerConfig) *Scorer {
	weights := cfg.Weights
	if weights == nil {
		weights = DefaultWeights()
	} else {
		weights = maps.Clone(weights)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scorer{weights: weights, now: now}
}

// Weight returns the weight used for a rule name.
func (s *Scorer) Weight(ruleName string) float64 {
	if w, ok := s.weights[ruleName]; ok {
		return w
	}
	return DefaultRuleWeight
}

// Notes evaluates every applicable rule once, in canonical order.
func (s *Scorer) Notes(in Input, now time.Time) []models.RiskNote {
	notes := make([]models.RiskNote, 0, len(rules))
	for _, r := range rules {
		if !r.applies(&in) {
			continue
		}
		notes = append(notes, r.eval(&in, now))
	}
	return notes
}

// OverallScore is the weighted mean of the note scores, truncated and clamped
// to [0,100]. Only the notes present contribute weight.
func (s *Scorer) OverallScore(notes []models.RiskNote) int {
	if len(notes) == 0 {
		return UnknownScore
	}

	var weighted, total float64
	for _, n := range notes {
		w := s.Weight(n.RuleName)
		weighted += float64(n.Score) * w
		total += w
	}
	if total <= 0 {
		return UnknownScore
	}

	// Weight sums are inexact; nudge so whole results don't truncate down.
	return clampScore(int(math.Floor(weighted/total + 1e-9)))
}

// Assess scores the input and builds the report. It never fails: missing data
// degrades each rule to its own default note.
func (s *Scorer) Assess(in Input) *models.RiskReport {
	now := s.now()
	notes := s.Notes(in, now)
	score := s.OverallScore(notes)

	return &models.RiskReport{
		MintAddress:     in.Mint,
		OverallScore:    score,
		Verdict:         VerdictFor(score),
		RiskLevel:       RiskLevelFor(score),
		Notes:           notes,
		TokenMeta:       in.TokenMeta,
		Pairs:           in.Pairs,
		TopHolders:      in.Holders,
		LiquidityLock:   in.LiquidityLock,
		TradingInfo:     in.TradingInfo,
		PumpFunInfo:     in.PumpFun,
		DataSourcesUsed: in.DataSourcesUsed,
		Warnings:        in.Warnings,
		GeneratedAt:     now,
	}
}

// RiskLevelFor maps a composite score to its tier.
func RiskLevelFor(score int) models.RiskLevel {
	switch {
	case score >= 60:
		return models.RiskLevelHighRisk
	case score >= 30:
		return models.RiskLevelCaution
	default:
		return models.RiskLevelSafe
	}
}

// VerdictFor maps a composite score to its verdict string.
func VerdictFor(score int) string {
	switch RiskLevelFor(score) {
	case models.RiskLevelHighRisk:
		return VerdictHighRisk
	case models.RiskLevelCaution:
		return VerdictCaution
	default:
		return VerdictSafe
	}
}

// VerdictEmoji is the display marker for a composite score.
func VerdictEmoji(score int) string {
	switch RiskLevelFor(score) {
	case models.RiskLevelHighRisk:
		return "❌"
	case models.RiskLevelCaution:
		return "⚠️"
	default:
		return "✅"
	}
}

// SeverityEmoji is the display marker for a note severity.
func SeverityEmoji(sev models.Severity) string {
	switch sev {
	case models.SeverityHigh:
		return "🔴"
	case models.SeverityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
