package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optionscout/backend/internal/contracts"
)

// Repository persists scan runs and their ranked results.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the scan_runs table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS scan_runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMPTZ NOT NULL,
			duration_ms       BIGINT NOT NULL,
			benchmark         TEXT NOT NULL DEFAULT '',
			attempted_symbols INT NOT NULL,
			completed_symbols INT NOT NULL,
			timed_out         BOOLEAN NOT NULL,
			reason            TEXT NOT NULL DEFAULT '',
			ranked            JSONB,
			universe          JSONB
		);
		CREATE INDEX IF NOT EXISTS scan_runs_started_at_idx ON scan_runs (started_at DESC);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure scan_runs schema: %w", err)
	}
	return nil
}

// SaveResult stores one scan run with its ranked symbols. The ranked bundle
// is stored as JSONB; the scalar columns exist for querying run history.
func (r *Repository) SaveResult(ctx context.Context, result *contracts.ScanResult) error {
	rankedJSON, err := json.Marshal(result.Ranked)
	if err != nil {
		return fmt.Errorf("marshal ranked: %w", err)
	}
	universeJSON, err := json.Marshal(result.Universe)
	if err != nil {
		return fmt.Errorf("marshal universe: %w", err)
	}

	query := `
		INSERT INTO scan_runs (
			run_id,
			started_at,
			duration_ms,
			benchmark,
			attempted_symbols,
			completed_symbols,
			timed_out,
			reason,
			ranked,
			universe
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query,
		result.RunID,
		result.StartedAt,
		result.Duration.Milliseconds(),
		result.Benchmark,
		result.AttemptedSymbols,
		result.CompletedSymbols,
		result.TimedOut,
		result.Reason,
		rankedJSON,
		universeJSON,
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}

	return nil
}

// GetLatestResult retrieves the most recent scan run.
func (r *Repository) GetLatestResult(ctx context.Context) (*contracts.ScanResult, error) {
	query := `
		SELECT
			run_id,
			started_at,
			duration_ms,
			benchmark,
			attempted_symbols,
			completed_symbols,
			timed_out,
			reason,
			ranked,
			universe
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	result := &contracts.ScanResult{}
	var durationMS int64
	var rankedJSON, universeJSON []byte

	err := r.db.QueryRow(ctx, query).Scan(
		&result.RunID,
		&result.StartedAt,
		&durationMS,
		&result.Benchmark,
		&result.AttemptedSymbols,
		&result.CompletedSymbols,
		&result.TimedOut,
		&result.Reason,
		&rankedJSON,
		&universeJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest scan run: %w", err)
	}

	result.Duration = time.Duration(durationMS) * time.Millisecond
	if len(rankedJSON) > 0 {
		if err := json.Unmarshal(rankedJSON, &result.Ranked); err != nil {
			return nil, fmt.Errorf("unmarshal ranked: %w", err)
		}
	}
	if len(universeJSON) > 0 {
		if err := json.Unmarshal(universeJSON, &result.Universe); err != nil {
			return nil, fmt.Errorf("unmarshal universe: %w", err)
		}
	}

	return result, nil
}

// ListRuns returns recent run summaries, newest first. Ranked payloads are
// omitted; callers fetch a specific run for the detail.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*contracts.ScanResult, error) {
	query := `
		SELECT
			run_id,
			started_at,
			duration_ms,
			benchmark,
			attempted_symbols,
			completed_symbols,
			timed_out,
			reason
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*contracts.ScanResult
	for rows.Next() {
		result := &contracts.ScanResult{}
		var durationMS int64
		if err := rows.Scan(
			&result.RunID,
			&result.StartedAt,
			&durationMS,
			&result.Benchmark,
			&result.AttemptedSymbols,
			&result.CompletedSymbols,
			&result.TimedOut,
			&result.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		result.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, result)
	}

	return runs, rows.Err()
}
