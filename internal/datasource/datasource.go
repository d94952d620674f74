// Package datasource holds one fetch client per upstream provider. Each client
// turns a provider response into a Result; the analyzer merges Results and
// hands them to the risk scorer.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/sirupsen/logrus"
)

// Provider fetches what one upstream knows about a mint. A nil Result with a
// nil error means the provider had nothing usable.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, mint string) (*Result, error)
}

// Result is a single provider's contribution to an analysis.
type Result struct {
	TokenMeta     *models.TokenMeta
	Pairs         []models.Pair
	Holders       []models.HolderStat
	LiquidityLock *models.LiquidityLock
	TradingInfo   *models.TradingInfo
	PumpFun       *models.PumpFunInfo
	RugCheck      *models.RugCheckData
}

// Empty reports whether r carries no data at all.
func (r *Result) Empty() bool {
	return r == nil ||
		(r.TokenMeta == nil && len(r.Pairs) == 0 && len(r.Holders) == 0 &&
			r.LiquidityLock == nil && r.TradingInfo == nil && r.PumpFun == nil && r.RugCheck == nil)
}

// HTTPError is a non-2xx response from a provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if len(b) > 200 {
		b = b[:200]
	}
	if b == "" {
		return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, b)
}

// HTTPConfig is shared by the REST-based providers.
type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

type httpGetter struct {
	provider     string
	client       *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
}

func newHTTPGetter(provider string, cfg HTTPConfig) *httpGetter {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &httpGetter{
		provider:     provider,
		client:       &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// getJSON GETs url and decodes the body into out. Rate limits and server
// errors are retried with exponential backoff.
func (g *httpGetter) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	var lastErr error
	backoff := g.retryBackoff

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.WithFields(logrus.Fields{
				"provider": g.provider,
				"attempt":  attempt,
				"backoff":  backoff,
				"error":    lastErr,
			}).Debug("retrying provider request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, err := g.do(ctx, url, headers)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode %s response: %w", g.provider, err)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (g *httpGetter) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{Provider: g.provider, StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}

func retryable(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return true
	}
	return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
}

func trimBaseURL(baseURL, fallback string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return fallback
	}
	return baseURL
}
