// Package store persists reconciliation runs to Postgres. Persistence
// is best-effort: the engine result goes back to the caller whether or
// not the insert lands, and every read path tolerates the pool being
// absent entirely.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"OurFloWorks/internal/engine"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	pool *pgxpool.Pool
}

// New wraps a pool; a nil pool yields a nil store, which callers treat
// as "history disabled".
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// Run is one persisted reconciliation, summary columns denormalized for
// cheap listing, full result kept as JSONB.
type Run struct {
	ID                   string        `json:"id"`
	Filename             string        `json:"filename"`
	FileHash             string        `json:"file_hash"`
	ArchiveURL           string        `json:"archive_url,omitempty"`
	UploadedBy           string        `json:"uploaded_by,omitempty"`
	UploadedAt           time.Time     `json:"uploaded_at"`
	RowCount             int           `json:"row_count"`
	DroppedRows          int           `json:"dropped_rows"`
	RegionCount          int           `json:"region_count"`
	ImpactedRegions      int           `json:"impacted_regions"`
	TotalSales           float64       `json:"total_sales"`
	RecomputedCommission float64       `json:"recomputed_commission"`
	AmountOwed           float64       `json:"amount_owed"`
	Result               engine.Result `json:"result"`
}

// RunSummary is the listing row; it never loads the JSONB payload.
type RunSummary struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	UploadedBy      string    `json:"uploaded_by,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
	RegionCount     int       `json:"region_count"`
	ImpactedRegions int       `json:"impacted_regions"`
	AmountOwed      float64   `json:"amount_owed"`
}

// EnsureSchema creates the run tables when they are missing so a fresh
// database works without a migration step.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recon_runs (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			file_hash TEXT NOT NULL,
			archive_url TEXT NOT NULL DEFAULT '',
			uploaded_by TEXT NOT NULL DEFAULT '',
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			row_count INT NOT NULL,
			dropped_rows INT NOT NULL,
			region_count INT NOT NULL,
			impacted_regions INT NOT NULL,
			total_sales DOUBLE PRECISION NOT NULL,
			recomputed_commission DOUBLE PRECISION NOT NULL,
			amount_owed DOUBLE PRECISION NOT NULL,
			result JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create recon_runs: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recon_region_lines (
			run_id UUID NOT NULL REFERENCES recon_runs(id) ON DELETE CASCADE,
			region TEXT NOT NULL,
			tier_index INT NOT NULL,
			total_sales DOUBLE PRECISION NOT NULL,
			recomputed_commission DOUBLE PRECISION NOT NULL,
			bonus DOUBLE PRECISION NOT NULL,
			total_with_bonus DOUBLE PRECISION NOT NULL,
			reported_commission DOUBLE PRECISION NOT NULL,
			reported_found BOOLEAN NOT NULL,
			delta DOUBLE PRECISION NOT NULL,
			classification TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create recon_region_lines: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_recon_runs_uploaded_at ON recon_runs (uploaded_at DESC)`)
	if err != nil {
		return fmt.Errorf("create uploaded_at index: %w", err)
	}
	return nil
}

// SaveRun writes the run row and its region lines in one transaction.
// Region lines go through CopyFrom since statements can carry hundreds
// of regions across territories.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO recon_runs (
			id, filename, file_hash, archive_url, uploaded_by, uploaded_at,
			row_count, dropped_rows, region_count, impacted_regions,
			total_sales, recomputed_commission, amount_owed, result
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		run.ID, run.Filename, run.FileHash, run.ArchiveURL, run.UploadedBy, run.UploadedAt,
		run.RowCount, run.DroppedRows, run.RegionCount, run.ImpactedRegions,
		run.TotalSales, run.RecomputedCommission, run.AmountOwed, payload,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	byRegion := make(map[string]engine.DiscrepancyEntry, len(run.Result.Discrepancies))
	for _, d := range run.Result.Discrepancies {
		byRegion[d.Region] = d
	}
	rows := make([][]interface{}, 0, len(run.Result.Regions))
	for _, agg := range run.Result.Regions {
		entry := byRegion[agg.Region]
		rows = append(rows, []interface{}{
			run.ID,
			agg.Region,
			agg.TierIndex,
			agg.TotalSales.InexactFloat64(),
			agg.RecomputedCommission.InexactFloat64(),
			agg.Bonus.InexactFloat64(),
			agg.TotalWithBonus.InexactFloat64(),
			agg.ReportedCommission.InexactFloat64(),
			agg.ReportedFound,
			entry.Delta.InexactFloat64(),
			string(entry.Classification),
		})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"recon_region_lines"},
			[]string{"run_id", "region", "tier_index", "total_sales", "recomputed_commission",
				"bonus", "total_with_bonus", "reported_commission", "reported_found", "delta", "classification"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy region lines: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns returns the newest runs first, offset rows in.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, filename, uploaded_by, uploaded_at, region_count, impacted_regions, amount_owed
		FROM recon_runs
		ORDER BY uploaded_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunSummary, 0, limit)
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Filename, &r.UploadedBy, &r.UploadedAt,
			&r.RegionCount, &r.ImpactedRegions, &r.AmountOwed); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRuns returns the total number of persisted runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM recon_runs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return total, nil
}

// GetRun loads one run with its full result payload.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run     Run
		payload []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, filename, file_hash, archive_url, uploaded_by, uploaded_at,
			row_count, dropped_rows, region_count, impacted_regions,
			total_sales, recomputed_commission, amount_owed, result
		FROM recon_runs WHERE id = $1`, id).Scan(
		&run.ID, &run.Filename, &run.FileHash, &run.ArchiveURL, &run.UploadedBy, &run.UploadedAt,
		&run.RowCount, &run.DroppedRows, &run.RegionCount, &run.ImpactedRegions,
		&run.TotalSales, &run.RecomputedCommission, &run.AmountOwed, &payload,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if err := json.Unmarshal(payload, &run.Result); err != nil {
		return nil, fmt.Errorf("decode run %s result: %w", id, err)
	}
	return &run, nil
}

// PurgeOlderThan deletes runs whose upload date is past the retention
// horizon. Region lines go with them via the cascade.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := s.pool.Exec(ctx, `DELETE FROM recon_runs WHERE uploaded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
