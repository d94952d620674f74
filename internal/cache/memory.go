package cache

import (
	"context"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process report cache for the CLI and for API
// deployments without Redis.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *MemoryCache) GetReport(_ context.Context, mint string) (*models.RiskReport, error) {
	v, ok := m.c.Get(mint)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v.(*models.RiskReport), nil
}

func (m *MemoryCache) SetReport(_ context.Context, report *models.RiskReport, ttl time.Duration) error {
	m.c.Set(report.MintAddress, report, ttl)
	return nil
}

func (m *MemoryCache) Ping(context.Context) error { return nil }

func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}
