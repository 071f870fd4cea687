package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"menu-planner/internal/shared"
)

// OperationMetric records metadata for a single menu operation.
type OperationMetric struct {
	Operation string
	OwnerID   string
	Outcome   string
	LatencyMS int64
	Timestamp time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m OperationMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operation_metrics (operation, owner_id, outcome, latency_ms, timestamp) VALUES (?, ?, ?, ?, ?)`,
		m.Operation, m.OwnerID, m.Outcome, m.LatencyMS, ts.Unix())
	if err != nil {
		return fmt.Errorf("failed to record %s metric: %w", m.Operation, err)
	}
	return nil
}

// RecordMeta records metrics directly from shared.OperationMeta.
func (s *Store) RecordMeta(ctx context.Context, meta shared.OperationMeta) error {
	if meta.Operation == "" {
		return nil
	}
	return s.Record(ctx, OperationMetric{
		Operation: meta.Operation,
		OwnerID:   meta.OwnerID,
		Outcome:   meta.Outcome,
		LatencyMS: meta.Latency.Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
}

// DailyUsage represents operation totals for a single day.
type DailyUsage struct {
	Date         string
	Operation    string
	Total        int
	Busy         int
	Errors       int
	AvgLatencyMS float64
}

// GetDailyUsage retrieves per-operation usage for the last N days.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(timestamp, 'unixepoch') AS day, operation, COUNT(*),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		       AVG(latency_ms)
		FROM operation_metrics
		WHERE timestamp >= ?
		GROUP BY day, operation
		ORDER BY day DESC, operation`,
		shared.OutcomeBusy, shared.OutcomeError, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.Operation, &u.Total, &u.Busy, &u.Errors, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM operation_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
