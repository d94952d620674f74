package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func rpcServer(t *testing.T, handler func(method string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetTokenSupply(t *testing.T) {
	srv := rpcServer(t, func(method string) (int, string) {
		assert.Equal(t, "getTokenSupply", method)
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"amount":"1000000000","decimals":6,"uiAmountString":"1000"}}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, Logger: quietLogger()})
	supply, err := c.GetTokenSupply(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", supply.Amount)
	assert.Equal(t, 6, supply.Decimals)
}

func TestGetTokenLargestAccounts(t *testing.T) {
	srv := rpcServer(t, func(method string) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[
			{"address":"A1","amount":"700","decimals":0,"uiAmountString":"700"},
			{"address":"A2","amount":"300","decimals":0,"uiAmountString":"300"}]}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, Logger: quietLogger()})
	accounts, err := c.GetTokenLargestAccounts(context.Background(), "mint")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "A1", accounts[0].Address)
	assert.Equal(t, "700", accounts[0].Amount)
}

func TestGetAccountInfo(t *testing.T) {
	srv := rpcServer(t, func(method string) (int, string) {
		assert.Equal(t, "getAccountInfo", method)
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{
			"owner":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","lamports":1461600,"executable":false,"data":["AQ==","base64"]}}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, Logger: quietLogger()})
	acc, err := c.GetAccountInfo(context.Background(), "mint")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", acc.Owner)
	assert.Equal(t, uint64(1461600), acc.Lamports)
}

func TestGetAccountInfo_Missing(t *testing.T) {
	srv := rpcServer(t, func(string) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":null}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, Logger: quietLogger()})
	acc, err := c.GetAccountInfo(context.Background(), "mint")
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestCall_RPCError(t *testing.T) {
	srv := rpcServer(t, func(string) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param: not a Token mint"}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, Logger: quietLogger()})
	_, err := c.GetTokenSupply(context.Background(), "mint")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestCall_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := rpcServer(t, func(string) (int, string) {
		if calls.Add(1) < 3 {
			return http.StatusTooManyRequests, ``
		}
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"amount":"5","decimals":0}}}`
	})

	c := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		Logger:       quietLogger(),
	})
	supply, err := c.GetTokenSupply(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, "5", supply.Amount)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_MaxRetriesExceeded(t *testing.T) {
	srv := rpcServer(t, func(string) (int, string) {
		return http.StatusInternalServerError, ``
	})

	c := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		Logger:       quietLogger(),
	})
	_, err := c.GetTokenSupply(context.Background(), "mint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestCall_PacesRequests(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := rpcServer(t, func(string) (int, string) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"amount":"1","decimals":0}}}`
	})

	delay := 50 * time.Millisecond
	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, RequestDelay: delay, Logger: quietLogger()})

	for i := 0; i < 3; i++ {
		_, err := c.GetTokenSupply(context.Background(), "mint")
		require.NoError(t, err)
	}

	require.Len(t, times, 3)
	// Allow some scheduler slack below the configured gap.
	assert.GreaterOrEqual(t, times[2].Sub(times[0]), 2*delay-10*time.Millisecond)
}

func TestCall_ContextCancelledWhilePacing(t *testing.T) {
	srv := rpcServer(t, func(string) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"amount":"1","decimals":0}}}`
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, RequestDelay: time.Hour, Logger: quietLogger()})
	_, err := c.GetTokenSupply(context.Background(), "mint")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetTokenSupply(ctx, "mint")
	require.Error(t, err)
}
