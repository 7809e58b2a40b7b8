package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/db"
)

const runColumns = `id, created_at, source, mode, total_seats, quotas, total, assigned, unassigned, skipped, departments`

var assignmentColumns = []string{
	"run_id", "rank", "student_id", "name", "average", "student_channel", "department", "channel", "pass", "skipped",
}

// InsertRun inserts a run and copies its assignments in one transaction
func (d *DB) InsertRun(ctx context.Context, run *db.Run, assignments []db.RunAssignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO allocation_run (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, run.ID, run.CreatedAt, run.Source, run.Mode, run.TotalSeats, run.Quotas,
		run.Total, run.Assigned, run.Unassigned, run.Skipped, run.Departments)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	rows := make([][]any, len(assignments))
	for i, a := range assignments {
		rows[i] = []any{run.ID, a.Rank, a.StudentID, a.Name, a.Average, a.StudentChannel, a.Department, a.Channel, a.Pass, a.Skipped}
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"run_assignment"}, assignmentColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert assignments: %w", err)
	}
	if int(copied) != len(assignments) {
		return fmt.Errorf("inserted %d of %d assignments", copied, len(assignments))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.logger.Debug("Stored run", zap.String("run_id", run.ID), zap.Int("assignments", len(assignments)))
	return nil
}

// GetRuns returns runs newest first. limit <= 0 returns every run.
func (d *DB) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	// LIMIT NULL means no limit
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM allocation_run
		ORDER BY created_at DESC
		LIMIT $1
	`, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRun returns one run or db.ErrRunNotFound
func (d *DB) GetRun(ctx context.Context, id string) (*db.Run, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM allocation_run WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRunAssignments returns a run's assignments in rank order
func (d *DB) GetRunAssignments(ctx context.Context, runID string) ([]db.RunAssignment, error) {
	if _, err := d.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx, `
		SELECT run_id, rank, student_id, name, average, student_channel, department, channel, pass, skipped
		FROM run_assignment
		WHERE run_id = $1
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.RunAssignment
	for rows.Next() {
		var a db.RunAssignment
		if err := rows.Scan(&a.RunID, &a.Rank, &a.StudentID, &a.Name, &a.Average,
			&a.StudentChannel, &a.Department, &a.Channel, &a.Pass, &a.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func scanRun(row pgx.Row) (*db.Run, error) {
	var run db.Run
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Mode, &run.TotalSeats, &run.Quotas,
		&run.Total, &run.Assigned, &run.Unassigned, &run.Skipped, &run.Departments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}
