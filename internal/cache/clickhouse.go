package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReportsTableDDL creates the report history table.
const ReportsTableDDL = `
CREATE TABLE IF NOT EXISTS risk_reports (
	id            UUID,
	mint          String,
	overall_score UInt8,
	risk_level    LowCardinality(String),
	verdict       String,
	high_notes    UInt8,
	sources       Array(String),
	warnings      Array(String),
	report        String,
	generated_at  DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (mint, generated_at)
`

// ClickHouseConfig holds connection settings for ClickHouseStore
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore keeps every analysis run for history and analytics.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, ReportsTableDDL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create risk_reports table: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

func (c *ClickHouseStore) InsertReport(ctx context.Context, runID string, report *models.RiskReport) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		id = uuid.New()
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO risk_reports (
			id, mint, overall_score, risk_level, verdict,
			high_notes, sources, warnings, report, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = c.conn.Exec(ctx, query,
		id,
		report.MintAddress,
		uint8(report.OverallScore),
		string(report.RiskLevel),
		report.Verdict,
		uint8(countHigh(report.Notes)),
		nonNil(report.DataSourcesUsed),
		nonNil(report.Warnings),
		string(body),
		report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) RecentReports(ctx context.Context, mint string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > constants.MaxHistoryRows {
		limit = constants.DefaultHistoryCap
	}

	rows, err := c.conn.Query(ctx, `
		SELECT id, mint, overall_score, risk_level, verdict, high_notes, sources, warnings, generated_at
		FROM risk_reports
		WHERE mint = ?
		ORDER BY generated_at DESC
		LIMIT ?
	`, mint, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report history: %w", err)
	}
	defer rows.Close()

	out := []models.HistoryEntry{}
	for rows.Next() {
		var (
			e         models.HistoryEntry
			id        uuid.UUID
			score     uint8
			highNotes uint8
			level     string
		)
		if err := rows.Scan(&id, &e.MintAddress, &score, &level, &e.Verdict, &highNotes, &e.DataSourcesUsed, &e.Warnings, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		e.ID = id.String()
		e.OverallScore = int(score)
		e.HighNotes = int(highNotes)
		e.RiskLevel = models.RiskLevel(level)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}

func countHigh(notes []models.RiskNote) int {
	n := 0
	for _, note := range notes {
		if note.Severity == models.SeverityHigh {
			n++
		}
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
