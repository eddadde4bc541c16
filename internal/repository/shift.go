package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mkravets/skladbot/internal/models"
	"github.com/mkravets/skladbot/internal/timeutil"
)

// FindOpenShift returns the newest shift row of the employee that has
// no end timestamp. ErrNoOpenShift means every shift is closed.
func (r *Repository) FindOpenShift(ctx context.Context, telegramID int64) (models.Shift, error) {
	var shift models.Shift
	query := `
		SELECT id, telegram_id, work_date, started_at, ended_at, duration_min FROM shifts
		WHERE telegram_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1;
	`

	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&shift.ID, &shift.EmployeeID, &shift.Date, &shift.StartedAt, &shift.EndedAt, &shift.DurationMin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Shift{}, ErrNoOpenShift
		}
		return models.Shift{}, fmt.Errorf("failed to find open shift: %w", err)
	}

	return shift, nil
}

// OpenShift appends a shift row with an empty end. It refuses with
// ErrShiftAlreadyOpen while another shift of the employee is open, which
// keeps the at-most-one-open-shift invariant. The check and the insert
// are two store calls; two devices racing on the same account can still
// slip through, and that is accepted.
func (r *Repository) OpenShift(ctx context.Context, telegramID int64, now time.Time) error {
	_, err := r.FindOpenShift(ctx, telegramID)
	if err == nil {
		return ErrShiftAlreadyOpen
	}
	if !errors.Is(err, ErrNoOpenShift) {
		return err
	}

	query := `
		INSERT INTO shifts (telegram_id, work_date, started_at)
		VALUES ($1, $2, $3);
	`
	if _, err = r.db.Exec(ctx, query, telegramID, timeutil.DayOf(now), now); err != nil {
		return fmt.Errorf("failed to open shift: %w", err)
	}

	return nil
}

// CloseShift finds the employee's open shift and fills in its end
// timestamp and duration (floored minutes, never negative). It returns
// the duration, or ErrNoOpenShift when there is nothing to close —
// closing without an open shift writes no row.
func (r *Repository) CloseShift(ctx context.Context, telegramID int64, now time.Time) (int, error) {
	shift, err := r.FindOpenShift(ctx, telegramID)
	if err != nil {
		return 0, err
	}

	duration := timeutil.ElapsedMinutes(shift.StartedAt, now)

	query := `
		UPDATE shifts SET ended_at = $2, duration_min = $3
		WHERE id = $1;
	`
	if _, err = r.db.Exec(ctx, query, shift.ID, now, duration); err != nil {
		return 0, fmt.Errorf("failed to close shift: %w", err)
	}

	return duration, nil
}

// ShiftsForDay returns all shift rows of one employee for the given work
// date, in start order.
func (r *Repository) ShiftsForDay(ctx context.Context, telegramID int64, date time.Time) ([]models.Shift, error) {
	query := `
		SELECT id, telegram_id, work_date, started_at, ended_at, duration_min FROM shifts
		WHERE telegram_id = $1 AND work_date = $2
		ORDER BY started_at;
	`

	rows, err := r.db.Query(ctx, query, telegramID, timeutil.DayOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// ShiftsOnDate returns every employee's shift rows for the given work
// date, for the supervisor's summary.
func (r *Repository) ShiftsOnDate(ctx context.Context, date time.Time) ([]models.Shift, error) {
	query := `
		SELECT id, telegram_id, work_date, started_at, ended_at, duration_min FROM shifts
		WHERE work_date = $1
		ORDER BY telegram_id, started_at;
	`

	rows, err := r.db.Query(ctx, query, timeutil.DayOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

func scanShifts(rows pgx.Rows) ([]models.Shift, error) {
	var shifts []models.Shift
	for rows.Next() {
		var shift models.Shift
		if err := rows.Scan(
			&shift.ID, &shift.EmployeeID, &shift.Date, &shift.StartedAt, &shift.EndedAt, &shift.DurationMin,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift row: %w", err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return shifts, nil
}
