package datasource

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// DexScreener lists every DEX pair DexScreener tracks for a token.
type DexScreener struct {
	baseURL string
	http    *httpGetter
}

func NewDexScreener(cfg HTTPConfig) *DexScreener {
	return &DexScreener{
		baseURL: trimBaseURL(cfg.BaseURL, constants.DexScreenerBaseURL),
		http:    newHTTPGetter(constants.ProviderDexScreener, cfg),
	}
}

func (d *DexScreener) Name() string { return constants.ProviderDexScreener }

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

type dexScreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

func (t dexScreenerToken) ref() models.TokenRef {
	return models.TokenRef{Address: t.Address, Name: t.Name, Symbol: t.Symbol}
}

type dexScreenerPair struct {
	ChainID     string           `json:"chainId"`
	DexID       string           `json:"dexId"`
	URL         string           `json:"url"`
	PairAddress string           `json:"pairAddress"`
	BaseToken   dexScreenerToken `json:"baseToken"`
	QuoteToken  dexScreenerToken `json:"quoteToken"`
	PriceNative string           `json:"priceNative"`
	PriceUSD    string           `json:"priceUsd"`
	Txns        *struct {
		H24 *struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Volume *struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD   *float64 `json:"usd"`
		Base  *float64 `json:"base"`
		Quote *float64 `json:"quote"`
	} `json:"liquidity"`
	FDV           *float64 `json:"fdv"`
	PairCreatedAt *int64   `json:"pairCreatedAt"`
}

func (d *DexScreener) Fetch(ctx context.Context, mint string) (*Result, error) {
	var resp dexScreenerResponse
	if err := d.http.getJSON(ctx, d.baseURL+"/latest/dex/tokens/"+mint, nil, &resp); err != nil {
		return nil, err
	}

	pairs := make([]models.Pair, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.ChainID != "" && p.ChainID != "solana" {
			continue
		}
		pairs = append(pairs, p.toPair())
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	return &Result{Pairs: pairs}, nil
}

func (p dexScreenerPair) toPair() models.Pair {
	out := models.Pair{
		PairAddress: p.PairAddress,
		BaseToken:   p.BaseToken.ref(),
		QuoteToken:  p.QuoteToken.ref(),
		PriceUSD:    parseFloat(p.PriceUSD),
		PriceNative: parseFloat(p.PriceNative),
		FDVUSD:      p.FDV,
		DexID:       p.DexID,
		Router:      p.URL,
	}
	if p.Liquidity != nil {
		out.LiquidityUSD = p.Liquidity.USD
		out.LiquidityNative = p.Liquidity.Quote
	}
	if p.Volume != nil {
		out.Volume24hUSD = p.Volume.H24
	}
	if p.Txns != nil && p.Txns.H24 != nil {
		n := p.Txns.H24.Buys + p.Txns.H24.Sells
		out.Txns24h = &n
	}
	if p.PairCreatedAt != nil && *p.PairCreatedAt > 0 {
		t := time.UnixMilli(*p.PairCreatedAt).UTC()
		out.PairCreatedAt = &t
	}
	return out
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
