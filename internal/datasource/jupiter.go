package datasource

import (
	"context"
	"errors"
	"strings"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/jupiter"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// probeAmount is the raw input amount for the route probe.
const probeAmount = "1000000"

// Quoter is the subset of the Jupiter client the probe needs.
type Quoter interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
}

// Jupiter asks the aggregator for a mint→USDC route. A route means the token
// is tradeable through Jupiter, recorded as a pair on the "jupiter" venue.
type Jupiter struct {
	quoter Quoter
}

func NewJupiter(q Quoter) *Jupiter {
	return &Jupiter{quoter: q}
}

func (j *Jupiter) Name() string { return constants.ProviderJupiter }

func (j *Jupiter) Fetch(ctx context.Context, mint string) (*Result, error) {
	if mint == constants.USDCMint {
		return nil, nil
	}

	slippage := uint16(100)
	quote, err := j.quoter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   mint,
		OutputMint:  constants.USDCMint,
		Amount:      probeAmount,
		SlippageBps: &slippage,
	})
	if err != nil {
		var he *jupiter.HTTPError
		if errors.As(err, &he) && he.NoRoute() {
			return nil, nil
		}
		return nil, err
	}
	if quote == nil || len(quote.RoutePlan) == 0 {
		return nil, nil
	}

	pair := models.Pair{
		PairAddress: quote.RoutePlan[0].SwapInfo.AmmKey,
		BaseToken:   models.TokenRef{Address: mint},
		QuoteToken:  models.TokenRef{Address: constants.USDCMint, Symbol: "USDC"},
		DexID:       constants.ProviderJupiter,
		Router:      strings.Join(quote.Labels(), " > "),
	}
	return &Result{Pairs: []models.Pair{pair}}, nil
}
