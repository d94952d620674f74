package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
)

// ErrCacheMiss is returned when no cached report exists for a mint.
var ErrCacheMiss = errors.New("report not cached")

// ReportCache defines the interface for caching finished reports
type ReportCache interface {
	// GetReport returns the cached report for mint or ErrCacheMiss
	GetReport(ctx context.Context, mint string) (*models.RiskReport, error)

	// SetReport caches a report under its mint address
	SetReport(ctx context.Context, report *models.RiskReport, ttl time.Duration) error

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// ReportStore defines the interface for persistent report history
type ReportStore interface {
	// InsertReport records one analysis run
	InsertReport(ctx context.Context, runID string, report *models.RiskReport) error

	// RecentReports lists the latest analyses of mint, newest first
	RecentReports(ctx context.Context, mint string, limit int) ([]models.HistoryEntry, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// ReportPublisher broadcasts finished reports to live subscribers
type ReportPublisher interface {
	PublishReport(ctx context.Context, event *models.ReportEvent) error
}
