package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when no cached report exists for a mint.
var ErrCacheMiss = storage.ErrCacheMiss

// RedisCache caches reports in Redis so every API replica shares them.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// RedisConfig holds connection settings for RedisCache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Logger   *logrus.Logger
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to Redis")

	return &RedisCache{client: client, logger: cfg.Logger}, nil
}

// Client exposes the underlying connection for components that share it (flags).
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) GetReport(ctx context.Context, mint string) (*models.RiskReport, error) {
	val, err := r.client.Get(ctx, reportKey(mint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var report models.RiskReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func (r *RedisCache) SetReport(ctx context.Context, report *models.RiskReport, ttl time.Duration) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.client.Set(ctx, reportKey(report.MintAddress), b, ttl).Err(); err != nil {
		return fmt.Errorf("set report: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func reportKey(mint string) string {
	return constants.RedisKeyReportPrefix + mint
}
