package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

// Timestamps are unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    variant TEXT NOT NULL,
    url TEXT NOT NULL,
    plan_id TEXT,
    occurred_at INTEGER NOT NULL,
    received_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000 AS INTEGER))
);

CREATE INDEX IF NOT EXISTS idx_events_variant ON events(variant);
CREATE INDEX IF NOT EXISTS idx_events_variant_type ON events(variant, type);

CREATE TABLE IF NOT EXISTS webhook_events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    received_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000 AS INTEGER))
);
`

var _ Store = (*SQLiteStore)(nil)

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordEvent inserts e, assigning an id and receive time when unset.
func (s *SQLiteStore) RecordEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.ReceivedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, type, variant, url, plan_id, occurred_at, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.Variant, e.URL, nullableString(e.PlanID), e.OccurredAt.UnixMilli(), e.ReceivedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetVariantStats(ctx context.Context) ([]VariantStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant,
			COUNT(CASE WHEN type = 'impression' THEN 1 END) as impressions,
			COUNT(CASE WHEN type = 'conversion' THEN 1 END) as conversions
		FROM events
		GROUP BY variant
		ORDER BY variant
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}
	defer rows.Close()

	var stats []VariantStats
	for rows.Next() {
		var vs VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Impressions, &vs.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, vs)
	}

	return stats, rows.Err()
}

// GetPlanStats counts conversions per variant and plan.
func (s *SQLiteStore) GetPlanStats(ctx context.Context) ([]PlanStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT variant, COALESCE(plan_id, ''), COUNT(*)
		FROM events
		WHERE type = 'conversion'
		GROUP BY variant, plan_id
		ORDER BY variant, plan_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan stats: %w", err)
	}
	defer rows.Close()

	var stats []PlanStats
	for rows.Next() {
		var ps PlanStats
		if err := rows.Scan(&ps.Variant, &ps.PlanID, &ps.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan plan stats: %w", err)
		}
		stats = append(stats, ps)
	}

	return stats, rows.Err()
}

// GetEvents lists events newest first. An empty variant lists all of them.
func (s *SQLiteStore) GetEvents(ctx context.Context, variant string) ([]*Event, error) {
	query := `SELECT id, type, variant, url, plan_id, occurred_at, received_at FROM events`
	var args []any
	if variant != "" {
		query += ` WHERE variant = ?`
		args = append(args, variant)
	}
	query += ` ORDER BY occurred_at DESC, received_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var planID sql.NullString
		var occurredAt, receivedAt int64
		if err := rows.Scan(&e.ID, &e.Type, &e.Variant, &e.URL, &planID, &occurredAt, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.PlanID = planID.String
		e.OccurredAt = time.UnixMilli(occurredAt)
		e.ReceivedAt = time.UnixMilli(receivedAt)
		events = append(events, &e)
	}

	return events, rows.Err()
}

// GetEvent fetches a single event by id.
func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	var e Event
	var planID sql.NullString
	var occurredAt, receivedAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, variant, url, plan_id, occurred_at, received_at FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.Type, &e.Variant, &e.URL, &planID, &occurredAt, &receivedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	e.PlanID = planID.String
	e.OccurredAt = time.UnixMilli(occurredAt)
	e.ReceivedAt = time.UnixMilli(receivedAt)
	return &e, nil
}

// MarkWebhookEvent records a processed webhook delivery. It returns false if
// the id was already recorded.
func (s *SQLiteStore) MarkWebhookEvent(ctx context.Context, id, eventType string) (bool, error) {
	// INSERT OR IGNORE dedups on the primary key
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO webhook_events (id, type, received_at) VALUES (?, ?, ?)`,
		id, eventType, time.Now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// ForgetWebhookEvent removes a recorded delivery so a retry is processed again.
func (s *SQLiteStore) ForgetWebhookEvent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to forget webhook event: %w", err)
	}
	return nil
}

// Ping checks the database connection for health checks
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SizeBytes reports the database size from sqlite's page accounting.
func (s *SQLiteStore) SizeBytes(ctx context.Context) (int64, error) {
	var size int64
	row := s.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to get database size: %w", err)
	}
	return size, nil
}

func nullableString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: str, Valid: true}
}
