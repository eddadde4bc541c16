package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// AppendOperation appends one composite operation row. This is the only
// write the dialog engine issues on commit; there is nothing to roll
// back if it fails.
func (r *Repository) AppendOperation(ctx context.Context, op models.Operation) error {
	query := `
		INSERT INTO operations
			(telegram_id, shift_id, work_date, op_type, article, quantity,
			 started_at, ended_at, duration_min, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := r.db.Exec(ctx, query,
		op.EmployeeID, op.ShiftID, timeutil.DayOf(op.Date), op.Type, op.Article, op.Quantity,
		op.StartedAt, op.EndedAt, op.DurationMin, op.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to append operation: %w", err)
	}

	return nil
}

// OperationsForDay returns all operation rows of one employee for the
// given work date, in start order.
func (r *Repository) OperationsForDay(
	ctx context.Context,
	telegramID int64,
	date time.Time,
) ([]models.Operation, error) {
	query := `
		SELECT id, telegram_id, shift_id, work_date, op_type, article, quantity,
			started_at, ended_at, duration_min, comment
		FROM operations
		WHERE telegram_id = $1 AND work_date = $2
		ORDER BY started_at;
	`

	rows, err := r.db.Query(ctx, query, telegramID, timeutil.DayOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	return scanOperations(rows)
}

// OperationsOnDate returns every employee's operation rows for the given
// work date.
func (r *Repository) OperationsOnDate(ctx context.Context, date time.Time) ([]models.Operation, error) {
	query := `
		SELECT id, telegram_id, shift_id, work_date, op_type, article, quantity,
			started_at, ended_at, duration_min, comment
		FROM operations
		WHERE work_date = $1
		ORDER BY telegram_id, started_at;
	`

	rows, err := r.db.Query(ctx, query, timeutil.DayOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	return scanOperations(rows)
}

func scanOperations(rows pgx.Rows) ([]models.Operation, error) {
	var ops []models.Operation
	for rows.Next() {
		var op models.Operation
		if err := rows.Scan(
			&op.ID, &op.EmployeeID, &op.ShiftID, &op.Date, &op.Type, &op.Article, &op.Quantity,
			&op.StartedAt, &op.EndedAt, &op.DurationMin, &op.Comment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return ops, nil
}
