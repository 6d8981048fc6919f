package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hpic-membership/internal/domain"
)

// Compile-time check.
var _ domain.RunRepository = (*RunRepo)(nil)

// RunRepo implements domain.RunRepository using SQLite.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

const runColumns = `id, status, trigger_type, as_of, started_at, finished_at,
	members_extracted, months_published, artifact_path, artifact_sha256,
	error_message, created_at`

// CreateRun inserts a new pipeline run in PENDING state.
func (r *RunRepo) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, status, trigger_type, as_of)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Status, run.TriggerType, run.AsOf.String(),
	)
	return mapDBError(err)
}

// UpdateRunStarted marks a run as RUNNING and stamps its start time.
func (r *RunRepo) UpdateRunStarted(ctx context.Context, id string) error {
	return r.updateExisting(ctx, `
		UPDATE pipeline_runs SET status = ?, started_at = ? WHERE id = ?`,
		domain.RunStatusRunning, formatTime(time.Now()), id)
}

// UpdateRunSuccess marks a run as SUCCESS and records its outcome.
func (r *RunRepo) UpdateRunSuccess(ctx context.Context, id string, result domain.RunResult) error {
	return r.updateExisting(ctx, `
		UPDATE pipeline_runs
		SET status = ?, finished_at = ?, members_extracted = ?,
		    months_published = ?, artifact_path = ?, artifact_sha256 = ?
		WHERE id = ?`,
		domain.RunStatusSuccess, formatTime(time.Now()),
		result.MembersExtracted, result.MonthsPublished,
		result.ArtifactPath, result.ArtifactSHA256, id)
}

// UpdateRunFailed marks a run as FAILED with the error surfaced to the operator.
func (r *RunRepo) UpdateRunFailed(ctx context.Context, id string, errMsg string) error {
	return r.updateExisting(ctx, `
		UPDATE pipeline_runs SET status = ?, finished_at = ?, error_message = ?
		WHERE id = ?`,
		domain.RunStatusFailed, formatTime(time.Now()), errMsg, id)
}

// GetRunByID returns a pipeline run by its ID.
func (r *RunRepo) GetRunByID(ctx context.Context, id string) (*domain.PipelineRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM pipeline_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []domain.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// updateExisting executes an UPDATE and reports NotFound when no row matched.
func (r *RunRepo) updateExisting(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("pipeline run not found")
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.PipelineRun, error) {
	var (
		run        domain.PipelineRun
		asOf       string
		startedAt  sql.NullString
		finishedAt sql.NullString
		artPath    sql.NullString
		artSHA     sql.NullString
		errMsg     sql.NullString
		createdAt  string
	)

	err := s.Scan(&run.ID, &run.Status, &run.TriggerType, &asOf,
		&startedAt, &finishedAt, &run.MembersExtracted, &run.MonthsPublished,
		&artPath, &artSHA, &errMsg, &createdAt)
	if err != nil {
		return nil, err
	}

	if run.AsOf, err = domain.ParseMonth(asOf); err != nil {
		return nil, fmt.Errorf("stored as_of %q: %w", asOf, err)
	}
	if run.StartedAt, err = timePtr(startedAt); err != nil {
		return nil, fmt.Errorf("stored started_at: %w", err)
	}
	if run.FinishedAt, err = timePtr(finishedAt); err != nil {
		return nil, fmt.Errorf("stored finished_at: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("stored created_at %q: %w", createdAt, err)
	}
	run.ArtifactPath = stringPtr(artPath)
	run.ArtifactSHA256 = stringPtr(artSHA)
	run.ErrorMessage = stringPtr(errMsg)

	return &run, nil
}
