// Package repository is the row-store collaborator of the bot. The store
// is treated as three append-only record sets (employees, shifts,
// operations): rows are appended, read back in full for a day, and at
// most one cell pair of an existing shift row is ever updated (end
// timestamp + duration on close). No multi-row transaction is relied on;
// the find-open-shift-then-close sequence is a known read-then-write
// race that the callers accept.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mkravets/skladbot/internal/models"
)

var (
	// ErrEmployeeNotFound is returned when no row exists for the Telegram ID.
	ErrEmployeeNotFound = errors.New("employee with this telegram ID not found")
	// ErrNoOpenShift is returned when the employee has no shift without an end timestamp.
	ErrNoOpenShift = errors.New("employee has no open shift")
	// ErrShiftAlreadyOpen is returned when opening a shift while one is still open.
	ErrShiftAlreadyOpen = errors.New("employee already has an open shift")
)

// EmployeeManager covers registration and identity lookups.
type EmployeeManager interface {
	FindEmployee(ctx context.Context, telegramID int64) (models.Employee, error)
	RegisterEmployee(ctx context.Context, telegramID int64, username, displayName string, now time.Time) (models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// ShiftManager covers the shift row lifecycle and day scans.
type ShiftManager interface {
	FindOpenShift(ctx context.Context, telegramID int64) (models.Shift, error)
	OpenShift(ctx context.Context, telegramID int64, now time.Time) error
	CloseShift(ctx context.Context, telegramID int64, now time.Time) (int, error)
	ShiftsForDay(ctx context.Context, telegramID int64, date time.Time) ([]models.Shift, error)
	ShiftsOnDate(ctx context.Context, date time.Time) ([]models.Shift, error)
}

// OperationManager covers appends of composite operation rows and day scans.
type OperationManager interface {
	AppendOperation(ctx context.Context, op models.Operation) error
	OperationsForDay(ctx context.Context, telegramID int64, date time.Time) ([]models.Operation, error)
	OperationsOnDate(ctx context.Context, date time.Time) ([]models.Operation, error)
}

// Repository implements the three record-set managers on a single Database.
type Repository struct {
	db Database
}

// NewRepository creates a new instance of Repository with the provided Database.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the three record sets if they do not exist yet.
// It mirrors what the supervisor's spreadsheet template used to do: make
// sure the sheets and their columns are in place before the first shift
// is logged.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			telegram_id   BIGINT PRIMARY KEY,
			username      TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS shifts (
			id           BIGSERIAL PRIMARY KEY,
			telegram_id  BIGINT NOT NULL,
			work_date    DATE NOT NULL,
			started_at   TIMESTAMPTZ NOT NULL,
			ended_at     TIMESTAMPTZ,
			duration_min INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS operations (
			id           BIGSERIAL PRIMARY KEY,
			telegram_id  BIGINT NOT NULL,
			shift_id     BIGINT,
			work_date    DATE NOT NULL,
			op_type      TEXT NOT NULL,
			article      TEXT NOT NULL DEFAULT '',
			quantity     INTEGER,
			started_at   TIMESTAMPTZ NOT NULL,
			ended_at     TIMESTAMPTZ NOT NULL,
			duration_min INTEGER NOT NULL,
			comment      TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
