package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database operations for the service.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BurnEvent represents a persisted burn event.
// The signature is the sole identity of an event; the table enforces
// uniqueness with a primary key on it.
type BurnEvent struct {
	Signature   string
	Timestamp   time.Time
	Action      string
	FromAddress *string
	ToAddress   *string // always nil for burns, kept for API shape stability
	Amount      string  // base-unit amount as a decimal string
	Token       string
	ScrapeTime  time.Time
	CreatedAt   time.Time
}

// InsertBurnEventParams contains the parameters for inserting a burn event.
type InsertBurnEventParams struct {
	Signature   string
	Timestamp   time.Time
	Action      string
	FromAddress *string
	ToAddress   *string
	Amount      string
	Token       string
	ScrapeTime  time.Time
}

// RunLog is one audit record per tracking run. Append-only.
type RunLog struct {
	ID              int64
	TotalChecked    int
	NewBurns        int
	Success         bool
	ErrorText       *string
	ExecutionTimeMs int64
	Notes           *string
	CreatedAt       time.Time
}

// InsertRunLogParams contains the parameters for appending a run log.
type InsertRunLogParams struct {
	TotalChecked    int
	NewBurns        int
	Success         bool
	ErrorText       *string
	ExecutionTimeMs int64
	Notes           *string
}

const burnEventColumns = `signature, timestamp, action, from_address, to_address, amount, token, scrape_time, created_at`

// InsertBurnEvent inserts a new burn event. The primary key on signature
// rejects duplicates; callers are expected to check existence first.
func (s *Store) InsertBurnEvent(ctx context.Context, params InsertBurnEventParams) (*BurnEvent, error) {
	action := params.Action
	if action == "" {
		action = "Burn"
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO burn_events (signature, timestamp, action, from_address, to_address, amount, token, scrape_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+burnEventColumns,
		params.Signature,
		params.Timestamp,
		action,
		params.FromAddress,
		params.ToAddress,
		params.Amount,
		params.Token,
		params.ScrapeTime,
	)
	return scanBurnEvent(row)
}

// BurnEventExists reports whether a burn event with the given signature has
// already been persisted.
func (s *Store) BurnEventExists(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM burn_events WHERE signature = $1)`,
		signature,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check burn event existence: %w", err)
	}
	return exists, nil
}

// GetBurnEvent retrieves a burn event by its signature.
func (s *Store) GetBurnEvent(ctx context.Context, signature string) (*BurnEvent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+burnEventColumns+` FROM burn_events WHERE signature = $1`,
		signature,
	)
	event, err := scanBurnEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// GetLatestBurnEvent retrieves the most recent burn event by block timestamp.
func (s *Store) GetLatestBurnEvent(ctx context.Context) (*BurnEvent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+burnEventColumns+` FROM burn_events ORDER BY timestamp DESC LIMIT 1`,
	)
	event, err := scanBurnEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// ListBurnEventsParams contains pagination parameters.
type ListBurnEventsParams struct {
	Limit  int32
	Offset int32
}

// ListBurnEvents retrieves burn events with pagination, newest first.
func (s *Store) ListBurnEvents(ctx context.Context, params ListBurnEventsParams) ([]*BurnEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+burnEventColumns+` FROM burn_events ORDER BY timestamp DESC LIMIT $1 OFFSET $2`,
		params.Limit,
		params.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list burn events: %w", err)
	}
	defer rows.Close()
	return collectBurnEvents(rows)
}

// ListBurnEventsByTimeRangeParams contains time range query parameters.
type ListBurnEventsByTimeRangeParams struct {
	StartTime time.Time
	EndTime   time.Time
	Limit     int32
}

// ListBurnEventsByTimeRange retrieves burn events within [StartTime, EndTime),
// newest first.
func (s *Store) ListBurnEventsByTimeRange(ctx context.Context, params ListBurnEventsByTimeRangeParams) ([]*BurnEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+burnEventColumns+` FROM burn_events
		 WHERE timestamp >= $1 AND timestamp < $2
		 ORDER BY timestamp DESC LIMIT $3`,
		params.StartTime,
		params.EndTime,
		params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list burn events by time range: %w", err)
	}
	defer rows.Close()
	return collectBurnEvents(rows)
}

// CountBurnEvents counts all persisted burn events.
func (s *Store) CountBurnEvents(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM burn_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count burn events: %w", err)
	}
	return count, nil
}

// InsertRunLog appends one audit record for a tracking run.
func (s *Store) InsertRunLog(ctx context.Context, params InsertRunLogParams) (*RunLog, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO burn_run_logs (total_checked, new_burns, success, error_text, execution_time_ms, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, total_checked, new_burns, success, error_text, execution_time_ms, notes, created_at`,
		params.TotalChecked,
		params.NewBurns,
		params.Success,
		params.ErrorText,
		params.ExecutionTimeMs,
		params.Notes,
	)

	var log RunLog
	err := row.Scan(
		&log.ID,
		&log.TotalChecked,
		&log.NewBurns,
		&log.Success,
		&log.ErrorText,
		&log.ExecutionTimeMs,
		&log.Notes,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run log: %w", err)
	}
	return &log, nil
}

// ListRunLogs retrieves the most recent run logs, newest first.
func (s *Store) ListRunLogs(ctx context.Context, limit int32) ([]*RunLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, total_checked, new_burns, success, error_text, execution_time_ms, notes, created_at
		FROM burn_run_logs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run logs: %w", err)
	}
	defer rows.Close()

	var logs []*RunLog
	for rows.Next() {
		var log RunLog
		if err := rows.Scan(
			&log.ID,
			&log.TotalChecked,
			&log.NewBurns,
			&log.Success,
			&log.ErrorText,
			&log.ExecutionTimeMs,
			&log.Notes,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run logs: %w", err)
	}
	return logs, nil
}

// scanBurnEvent scans one burn event row.
func scanBurnEvent(row pgx.Row) (*BurnEvent, error) {
	var event BurnEvent
	err := row.Scan(
		&event.Signature,
		&event.Timestamp,
		&event.Action,
		&event.FromAddress,
		&event.ToAddress,
		&event.Amount,
		&event.Token,
		&event.ScrapeTime,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan burn event: %w", err)
	}
	return &event, nil
}

// collectBurnEvents scans all burn event rows.
func collectBurnEvents(rows pgx.Rows) ([]*BurnEvent, error) {
	var events []*BurnEvent
	for rows.Next() {
		event, err := scanBurnEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read burn events: %w", err)
	}
	return events, nil
}
