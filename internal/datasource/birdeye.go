package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// Birdeye lists pools from Birdeye's pair overview. It needs an API key and
// returns nothing without one.
type Birdeye struct {
	baseURL string
	apiKey  string
	http    *httpGetter
}

func NewBirdeye(cfg HTTPConfig, apiKey string) *Birdeye {
	return &Birdeye{
		baseURL: trimBaseURL(cfg.BaseURL, constants.BirdeyeBaseURL),
		apiKey:  strings.TrimSpace(apiKey),
		http:    newHTTPGetter(constants.ProviderBirdeye, cfg),
	}
}

func (b *Birdeye) Name() string { return constants.ProviderBirdeye }

type birdeyeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []birdeyePool `json:"items"`
	} `json:"data"`
}

type birdeyeToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

func (t birdeyeToken) ref() models.TokenRef {
	return models.TokenRef{Address: t.Address, Name: t.Name, Symbol: t.Symbol}
}

type birdeyePool struct {
	Address   string       `json:"address"`
	Source    string       `json:"source"`
	DexID     string       `json:"dexId"`
	Base      birdeyeToken `json:"base"`
	Quote     birdeyeToken `json:"quote"`
	Price     *float64     `json:"price"`
	Liquidity usdAmount    `json:"liquidity"`
	Volume24h *float64     `json:"volume24h"`
	Trade24h  *int         `json:"trade24h"`
	CreatedAt string       `json:"created_at"`
}

// usdAmount accepts either a bare number or an object with a "usd" field.
type usdAmount struct {
	Value *float64
}

func (u *usdAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			USD *float64 `json:"usd"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		u.Value = obj.USD
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	u.Value = &v
	return nil
}

func (b *Birdeye) Fetch(ctx context.Context, mint string) (*Result, error) {
	if b.apiKey == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("address", mint)
	headers := map[string]string{
		"X-API-KEY": b.apiKey,
		"x-chain":   "solana",
	}

	var resp birdeyeResponse
	if err := b.http.getJSON(ctx, b.baseURL+"/defi/v3/pair/overview/multiple?"+q.Encode(), headers, &resp); err != nil {
		return nil, err
	}

	pairs := make([]models.Pair, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		pairs = append(pairs, item.toPair())
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	return &Result{Pairs: pairs}, nil
}

func (p birdeyePool) toPair() models.Pair {
	dex := p.DexID
	if dex == "" {
		dex = p.Source
	}
	out := models.Pair{
		PairAddress:  p.Address,
		BaseToken:    p.Base.ref(),
		QuoteToken:   p.Quote.ref(),
		PriceUSD:     p.Price,
		LiquidityUSD: p.Liquidity.Value,
		Volume24hUSD: p.Volume24h,
		Txns24h:      p.Trade24h,
		DexID:        strings.ToLower(dex),
	}
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		t = t.UTC()
		out.PairCreatedAt = &t
	}
	return out
}
