package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/jupiter"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDexScreener_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/"+testMint, r.URL.Path)
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":[
			{"chainId":"solana","dexId":"raydium","url":"https://dexscreener.com/solana/p1","pairAddress":"P1",
			 "baseToken":{"address":"` + testMint + `","name":"Bonk","symbol":"Bonk"},
			 "quoteToken":{"address":"So11111111111111111111111111111111111111112","name":"Wrapped SOL","symbol":"SOL"},
			 "priceNative":"0.0000001","priceUsd":"0.00002",
			 "txns":{"h24":{"buys":120,"sells":80}},
			 "volume":{"h24":250000.5},
			 "liquidity":{"usd":1500000,"base":100,"quote":9000},
			 "fdv":1200000000,"pairCreatedAt":1700000000000},
			{"chainId":"solana","dexId":"orca","pairAddress":"P2","priceUsd":""},
			{"chainId":"ethereum","dexId":"uniswap","pairAddress":"P3"}]}`))
	}))
	defer srv.Close()

	res, err := NewDexScreener(testConfig(srv.URL)).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Pairs, 2)

	p := res.Pairs[0]
	assert.Equal(t, "P1", p.PairAddress)
	assert.Equal(t, "raydium", p.DexID)
	assert.Equal(t, "Bonk", p.BaseToken.Symbol)
	require.NotNil(t, p.PriceUSD)
	assert.InDelta(t, 0.00002, *p.PriceUSD, 1e-12)
	require.NotNil(t, p.LiquidityUSD)
	assert.Equal(t, 1_500_000.0, *p.LiquidityUSD)
	require.NotNil(t, p.Txns24h)
	assert.Equal(t, 200, *p.Txns24h)
	require.NotNil(t, p.PairCreatedAt)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), *p.PairCreatedAt)

	assert.Nil(t, res.Pairs[1].PriceUSD)
	assert.Nil(t, res.Pairs[1].LiquidityUSD)
	assert.Equal(t, "dexscreener", NewDexScreener(testConfig(srv.URL)).Name())
}

func TestDexScreener_NoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs":null}`))
	}))
	defer srv.Close()

	res, err := NewDexScreener(testConfig(srv.URL)).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBirdeye_SkipsWithoutKey(t *testing.T) {
	res, err := NewBirdeye(testConfig("http://127.0.0.1:1"), "").Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBirdeye_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/v3/pair/overview/multiple", r.URL.Path)
		assert.Equal(t, testMint, r.URL.Query().Get("address"))
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "solana", r.Header.Get("x-chain"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[
			{"address":"B1","source":"Meteora","liquidity":42000.5,
			 "base":{"address":"`+testMint+`","symbol":"Bonk","name":"Bonk Inu"},
			 "quote":{"address":"So11111111111111111111111111111111111111112","symbol":"SOL","name":"Wrapped SOL"},"volume24h":1000,"created_at":"2024-05-01T10:00:00Z"},
			{"address":"B2","dexId":"orca","liquidity":{"usd":900}}]}}`))
	}))
	defer srv.Close()

	res, err := NewBirdeye(testConfig(srv.URL), "key").Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.Len(t, res.Pairs, 2)

	assert.Equal(t, "meteora", res.Pairs[0].DexID)
	assert.Equal(t, models.TokenRef{Address: testMint, Name: "Bonk Inu", Symbol: "Bonk"}, res.Pairs[0].BaseToken)
	assert.Equal(t, models.TokenRef{Address: "So11111111111111111111111111111111111111112", Name: "Wrapped SOL", Symbol: "SOL"}, res.Pairs[0].QuoteToken)
	assert.Empty(t, res.Pairs[1].BaseToken.Symbol)
	require.NotNil(t, res.Pairs[0].LiquidityUSD)
	assert.Equal(t, 42000.5, *res.Pairs[0].LiquidityUSD)
	require.NotNil(t, res.Pairs[0].PairCreatedAt)
	assert.Equal(t, 2024, res.Pairs[0].PairCreatedAt.Year())

	assert.Equal(t, "orca", res.Pairs[1].DexID)
	require.NotNil(t, res.Pairs[1].LiquidityUSD)
	assert.Equal(t, 900.0, *res.Pairs[1].LiquidityUSD)
}

func TestRugCheck_SkipsWithoutJWT(t *testing.T) {
	res, err := NewRugCheck(testConfig("http://127.0.0.1:1"), "").Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRugCheck_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tokens/"+testMint+"/risk-summary", r.URL.Path)
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"score":85,"risks":[{"name":"Mutable metadata"}]}`))
	}))
	defer srv.Close()

	res, err := NewRugCheck(testConfig(srv.URL), "jwt").Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, res.RugCheck)
	assert.Equal(t, "high", res.RugCheck.RiskLevel)
	require.NotNil(t, res.RugCheck.Score)
	assert.Equal(t, 85.0, *res.RugCheck.Score)
	assert.Contains(t, res.RugCheck.Raw, "risks")
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"explicit level", map[string]any{"risk_level": "MEDIUM", "score": 99.0}, "medium"},
		{"camel case", map[string]any{"riskLevel": "High"}, "high"},
		{"level key", map[string]any{"level": "low"}, "low"},
		{"score high", map[string]any{"riskScore": 80.0}, "high"},
		{"score medium", map[string]any{"risk_score": "55"}, "medium"},
		{"score low", map[string]any{"score": 10.0}, "low"},
		{"nothing", map[string]any{"other": 1.0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRiskLevel(tt.raw))
		})
	}
}

func TestPumpFun_Heuristic(t *testing.T) {
	p := NewPumpFun(testConfig("http://127.0.0.1:1"), "")

	res, err := p.Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = p.Fetch(context.Background(), pumpMint)
	require.NoError(t, err)
	require.NotNil(t, res.PumpFun)
	assert.True(t, res.PumpFun.IsPumpFunToken)
	assert.Equal(t, models.MigrationUnknown, res.PumpFun.MigrationStatus)
	assert.Nil(t, res.PumpFun.DevHoldingsPercentage)
}

func TestPumpFun_MoralisEnrichment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/"+pumpMint+"/metadata", r.URL.Path)
		assert.Equal(t, "mk", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"createdAt":"2025-01-02T03:04:05Z","creator":"DevWallet111"}`))
	}))
	defer srv.Close()

	res, err := NewPumpFun(testConfig(srv.URL), "mk").Fetch(context.Background(), pumpMint)
	require.NoError(t, err)
	require.NotNil(t, res.PumpFun.CreationTime)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), *res.PumpFun.CreationTime)
	assert.Equal(t, "DevWallet111", res.PumpFun.DevWallet)
}

func TestPumpFun_MoralisFailureKeepsHeuristic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res, err := NewPumpFun(testConfig(srv.URL), "mk").Fetch(context.Background(), pumpMint)
	require.NoError(t, err)
	require.NotNil(t, res.PumpFun)
	assert.True(t, res.PumpFun.IsPumpFunToken)
	assert.Nil(t, res.PumpFun.CreationTime)
}

type fakeTokenRPC struct {
	account     *rpc.AccountInfo
	missing     bool
	accountErr  error
	supply      *rpc.TokenAmount
	supplyErr   error
	accounts    []rpc.LargestAccount
	accountsErr error
}

func (f *fakeTokenRPC) GetAccountInfo(context.Context, string) (*rpc.AccountInfo, error) {
	switch {
	case f.accountErr != nil, f.missing:
		return nil, f.accountErr
	case f.account != nil:
		return f.account, nil
	}
	return &rpc.AccountInfo{Owner: constants.TokenProgramID}, nil
}

func (f *fakeTokenRPC) GetTokenSupply(context.Context, string) (*rpc.TokenAmount, error) {
	return f.supply, f.supplyErr
}

func (f *fakeTokenRPC) GetTokenLargestAccounts(context.Context, string) ([]rpc.LargestAccount, error) {
	return f.accounts, f.accountsErr
}

func largest(addr, amount string) rpc.LargestAccount {
	return rpc.LargestAccount{Address: addr, TokenAmount: rpc.TokenAmount{Amount: amount}}
}

func TestSolanaChain_Fetch(t *testing.T) {
	fake := &fakeTokenRPC{
		supply: &rpc.TokenAmount{Amount: "1000", Decimals: 6},
		accounts: []rpc.LargestAccount{
			largest("small", "100"),
			largest("empty", "0"),
			largest("whale", "600"),
			largest("bad", "not-a-number"),
		},
	}

	res, err := NewSolanaChain(fake, quietLogger()).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, res.TokenMeta)
	assert.Equal(t, testMint, res.TokenMeta.Address)
	assert.Equal(t, "BONK", res.TokenMeta.Symbol)
	require.NotNil(t, res.TokenMeta.Decimals)
	assert.Equal(t, 6, *res.TokenMeta.Decimals)
	assert.True(t, decimal.NewFromInt(1000).Equal(*res.TokenMeta.Supply))
	assert.Nil(t, res.TokenMeta.MintAuthority)
	assert.False(t, res.TokenMeta.IsMintAuthorityRenounced)

	require.Len(t, res.Holders, 2)
	assert.Equal(t, "whale", res.Holders[0].Address)
	assert.True(t, decimal.NewFromInt(60).Equal(res.Holders[0].Percentage))
	assert.Equal(t, "small", res.Holders[1].Address)
}

func TestSolanaChain_PartialFailure(t *testing.T) {
	fake := &fakeTokenRPC{
		supplyErr: errors.New("boom"),
		accounts:  []rpc.LargestAccount{largest("a", "5")},
	}

	res, err := NewSolanaChain(fake, quietLogger()).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res.TokenMeta)
	require.Len(t, res.Holders, 1)
	assert.True(t, res.Holders[0].Percentage.IsZero())
}

func TestSolanaChain_BothFail(t *testing.T) {
	fake := &fakeTokenRPC{supplyErr: errors.New("supply down"), accountsErr: errors.New("accounts down")}

	res, err := NewSolanaChain(fake, quietLogger()).Fetch(context.Background(), testMint)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "supply down")
	assert.Contains(t, err.Error(), "accounts down")
}

func TestSolanaChain_NotAMint(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeTokenRPC
		want string
	}{
		{"missing account", &fakeTokenRPC{missing: true}, "account does not exist"},
		{"wallet account", &fakeTokenRPC{account: &rpc.AccountInfo{Owner: "11111111111111111111111111111111"}}, "owned by 11111111111111111111111111111111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewSolanaChain(tt.fake, quietLogger()).Fetch(context.Background(), testMint)
			require.ErrorIs(t, err, ErrNotTokenMint)
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, res)
		})
	}
}

func TestSolanaChain_AccountLookupFailureIsNotFatal(t *testing.T) {
	fake := &fakeTokenRPC{
		accountErr: errors.New("rpc down"),
		supply:     &rpc.TokenAmount{Amount: "10", Decimals: 0},
		account:    &rpc.AccountInfo{Owner: constants.Token2022ProgramID},
	}

	res, err := NewSolanaChain(fake, quietLogger()).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.NotNil(t, res.TokenMeta)
}

type fakeQuoter struct {
	resp *jupiter.QuoteResponse
	err  error
	req  jupiter.QuoteRequest
}

func (f *fakeQuoter) Quote(_ context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestJupiter_Route(t *testing.T) {
	q := &fakeQuoter{resp: &jupiter.QuoteResponse{RoutePlan: []jupiter.RoutePlanStep{
		{SwapInfo: jupiter.SwapInfo{AmmKey: "AMM1", Label: "Raydium"}},
		{SwapInfo: jupiter.SwapInfo{AmmKey: "AMM2", Label: "Whirlpool"}},
	}}}

	res, err := NewJupiter(q).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "jupiter", res.Pairs[0].DexID)
	assert.Equal(t, "AMM1", res.Pairs[0].PairAddress)
	assert.Equal(t, "Raydium > Whirlpool", res.Pairs[0].Router)
	assert.Equal(t, testMint, q.req.InputMint)
}

func TestJupiter_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	res, err := NewJupiter(jupiter.NewClient(srv.URL, "", time.Second)).Fetch(context.Background(), testMint)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestJupiter_Error(t *testing.T) {
	res, err := NewJupiter(&fakeQuoter{err: &jupiter.HTTPError{StatusCode: 500}}).Fetch(context.Background(), testMint)
	require.Error(t, err)
	assert.Nil(t, res)
}
