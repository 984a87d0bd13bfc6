package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"library-converter/internal/pipeline"
)

// StatusPartialSuccess is the stored status of orphan candidates.
const StatusPartialSuccess = string(pipeline.StatusPartialSuccess)

// ErrOrphanNotFound is returned when resolving an unknown or already
// resolved orphan.
var ErrOrphanNotFound = errors.New("orphan not found or already resolved")

// BeginRun stores a new run and returns its id.
func (d *Database) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("begin_run", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := uuid.NewString()
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, dry_run, concurrency, total_assets)
		VALUES (?, ?, ?, ?, ?)
	`, id, time.Now().Unix(), info.DryRun, info.Concurrency, info.TotalAssets)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordResult stores one asset result for runID.
func (d *Database) RecordResult(ctx context.Context, runID string, r ResultRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_result", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO results (
			run_id, asset_id, file_name, kind, status, skip_reason, input_format,
			input_bytes, output_bytes, savings_pct, attempts, new_asset_id, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, r.AssetID, r.FileName, r.Kind, r.Status, r.SkipReason, r.InputFormat,
		r.InputBytes, r.OutputBytes, r.SavingsPct, r.Attempts, r.NewAssetID, r.Error,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result for %s: %w", r.AssetID, err)
	}
	return nil
}

// FinishRun stores the end time and totals of a run.
func (d *Database) FinishRun(ctx context.Context, runID string, totals RunTotals) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("finish_run", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, completed_assets = ?, input_bytes = ?, output_bytes = ?, error = ?
		WHERE id = ?
	`, time.Now().Unix(), totals.Completed, totals.InputBytes, totals.OutputBytes, nullString(totals.Error), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = fmt.Errorf("run %s not found", runID)
		return err
	}
	return nil
}

// GetRun returns a stored run.
func (d *Database) GetRun(ctx context.Context, runID string) (*Run, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_run", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var run Run
	var startedAt int64
	var finishedAt sql.NullInt64
	var runErr sql.NullString

	err = d.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, concurrency, total_assets,
			completed_assets, input_bytes, output_bytes, error
		FROM runs WHERE id = ?
	`, runID).Scan(
		&run.ID, &startedAt, &finishedAt, &run.DryRun, &run.Concurrency, &run.TotalAssets,
		&run.Completed, &run.InputBytes, &run.OutputBytes, &runErr,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0)
		run.FinishedAt = &t
	}
	run.Error = runErr.String
	return &run, nil
}

// ListOrphans returns unresolved partial successes, oldest first.
func (d *Database) ListOrphans(ctx context.Context) ([]Orphan, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_orphans", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, `
		SELECT id, run_id, asset_id, new_asset_id, file_name, error, created_at
		FROM results
		WHERE status = ? AND resolved_at IS NULL
		ORDER BY created_at, id
	`, StatusPartialSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orphans []Orphan
	for rows.Next() {
		var o Orphan
		var createdAt int64
		if err = rows.Scan(&o.ID, &o.RunID, &o.AssetID, &o.NewAssetID, &o.FileName, &o.Error, &createdAt); err != nil {
			return nil, err
		}
		o.CreatedAt = time.Unix(createdAt, 0)
		orphans = append(orphans, o)
	}
	err = rows.Err()
	return orphans, err
}

// ResolveOrphan marks an orphan as handled. resolution records what was
// done, e.g. "deleted" or "kept".
func (d *Database) ResolveOrphan(ctx context.Context, id int64, resolution string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("resolve_orphan", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, `
		UPDATE results SET resolved_at = ?, resolution = ?
		WHERE id = ? AND status = ? AND resolved_at IS NULL
	`, time.Now().Unix(), resolution, id, StatusPartialSuccess)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrOrphanNotFound
		return err
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RunLedger records the results of one run. It implements pipeline.Sink.
type RunLedger struct {
	db    *Database
	runID string
}

// Ledger returns a sink bound to runID.
func (d *Database) Ledger(runID string) *RunLedger {
	return &RunLedger{db: d, runID: runID}
}

// RunID returns the id of the run being recorded.
func (l *RunLedger) RunID() string {
	return l.runID
}

// Record stores a pipeline result.
func (l *RunLedger) Record(ctx context.Context, r pipeline.Result) error {
	return l.db.RecordResult(ctx, l.runID, ResultRecord{
		AssetID:     r.AssetID,
		FileName:    r.FileName,
		Kind:        string(r.Kind),
		Status:      string(r.Status),
		SkipReason:  string(r.SkipReason),
		InputFormat: r.InputFormat,
		InputBytes:  r.InputBytes,
		OutputBytes: r.OutputBytes,
		SavingsPct:  r.SavingsPct,
		Attempts:    r.Attempts,
		NewAssetID:  r.NewAssetID,
		Error:       r.Error,
		Duration:    r.Duration,
	})
}

// Finish writes the run summary.
func (l *RunLedger) Finish(ctx context.Context, s pipeline.Summary, runErr error) error {
	totals := RunTotals{
		Completed:   s.Completed(),
		InputBytes:  s.ReplacedInputBytes,
		OutputBytes: s.ReplacedOutputBytes,
	}
	if runErr != nil {
		totals.Error = runErr.Error()
	}
	return l.db.FinishRun(ctx, l.runID, totals)
}
