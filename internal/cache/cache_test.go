package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func sampleReport() *models.RiskReport {
	return &models.RiskReport{
		MintAddress:  testMint,
		OverallScore: 42,
		Verdict:      "Caution",
		RiskLevel:    models.RiskLevelCaution,
		Notes: []models.RiskNote{
			{RuleName: "Liquidity", Score: 45, Message: "Low liquidity: $1,000", Severity: models.SeverityHigh},
		},
		DataSourcesUsed: []string{"dexscreener"},
		Warnings:        []string{"Birdeye failed: http 500"},
		GeneratedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupTestRedis(t *testing.T) *RedisCache {
	c, err := NewRedisCache(RedisConfig{Addr: "localhost:6379", DB: 1, Logger: quietLogger()})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, c.Client().FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = c.Client().FlushDB(context.Background()).Err()
		_ = c.Close()
	})
	return c
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.GetReport(ctx, testMint)
	assert.ErrorIs(t, err, ErrCacheMiss)

	report := sampleReport()
	require.NoError(t, c.SetReport(ctx, report, 0))

	got, err := c.GetReport(ctx, testMint)
	require.NoError(t, err)
	assert.Same(t, report, got)
	assert.NoError(t, c.Ping(ctx))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.SetReport(ctx, sampleReport(), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.GetReport(ctx, testMint)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.GetReport(ctx, testMint)
	assert.ErrorIs(t, err, ErrCacheMiss)

	report := sampleReport()
	require.NoError(t, c.SetReport(ctx, report, time.Minute))

	got, err := c.GetReport(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, report.OverallScore, got.OverallScore)
	assert.Equal(t, report.RiskLevel, got.RiskLevel)
	assert.Equal(t, report.Notes, got.Notes)
	assert.True(t, report.GeneratedAt.Equal(got.GeneratedAt))

	ttl, err := c.Client().TTL(ctx, reportKey(testMint)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestPubSub_PublishReport(t *testing.T) {
	c := setupTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := NewPubSubManager(c.Client())
	events, err := ps.Subscribe(ctx, LevelChannel(models.RiskLevelCaution))
	require.NoError(t, err)

	report := sampleReport()
	require.NoError(t, ps.PublishReport(ctx, &models.ReportEvent{
		RunID:        "run-1",
		MintAddress:  report.MintAddress,
		OverallScore: report.OverallScore,
		RiskLevel:    report.RiskLevel,
		Verdict:      report.Verdict,
		GeneratedAt:  report.GeneratedAt,
	}))

	select {
	case ev := <-events:
		require.NotNil(t, ev)
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, 42, ev.OverallScore)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestCountHigh(t *testing.T) {
	notes := []models.RiskNote{
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityLow},
		{Severity: models.SeverityHigh},
	}
	assert.Equal(t, 2, countHigh(notes))
	assert.Equal(t, []string{}, nonNil(nil))
}
