package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mkravets/skladbot/internal/models"
)

// FindEmployee retrieves an employee row by Telegram ID. It returns
// ErrEmployeeNotFound when no row exists, which callers use to decide
// whether a registration prompt is needed.
func (r *Repository) FindEmployee(ctx context.Context, telegramID int64) (models.Employee, error) {
	var employee models.Employee
	query := `
		SELECT telegram_id, username, display_name, registered_at FROM employees
		WHERE telegram_id = $1;
	`

	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&employee.ID, &employee.Username, &employee.DisplayName, &employee.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee data: %w", err)
	}

	return employee, nil
}

// RegisterEmployee appends an employee row on first contact. Re-running
// it for a known ID is a no-op that returns the existing row, so /start
// can call it unconditionally.
func (r *Repository) RegisterEmployee(
	ctx context.Context,
	telegramID int64,
	username, displayName string,
	now time.Time,
) (models.Employee, error) {
	query := `
		INSERT INTO employees (telegram_id, username, display_name, registered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO NOTHING;
	`

	if _, err := r.db.Exec(ctx, query, telegramID, username, displayName, now); err != nil {
		return models.Employee{}, fmt.Errorf("failed to register employee: %w", err)
	}

	return r.FindEmployee(ctx, telegramID)
}

// ListEmployees returns every registered employee, used to resolve
// display names when the supervisor's day summary is rendered.
func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	query := `SELECT telegram_id, username, display_name, registered_at FROM employees;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var employee models.Employee
		if errScan := rows.Scan(
			&employee.ID, &employee.Username, &employee.DisplayName, &employee.RegisteredAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", errScan)
		}
		employees = append(employees, employee)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return employees, nil
}
