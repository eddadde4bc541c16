package repository_test

import (
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mkravets/skladbot/internal/repository"
)

func TestNewDatabase_Success(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	var err error

	ctx := t.Context()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	defer func() {
		if err = pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate postgres container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbpool, err := repository.NewDatabase(host, port.Port(), "testuser", "testpassword", "testdb")
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	defer dbpool.Close()

	if err = dbpool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database after connection: %v", err)
	}

	repo := repository.NewRepository(dbpool)
	if err = repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed on a fresh database: %v", err)
	}
	// Re-running must be a no-op.
	if err = repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed on the second run: %v", err)
	}
}

func TestNewDatabase_ParseConfigError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase("localhost", "invalid-port", "user", "pass", "db")

	require.Error(t, err, "Expected an error for invalid database URL, but got nil")
	require.Nil(t, dbpool, "Expected nil dbpool, got: %v", dbpool)

	require.ErrorContains(t, err, "failed to parse database config")
}

func TestNewDatabase_ConnectionError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase("nonexistent-host", "5432", "user", "pass", "db")

	require.Error(t, err, "Expected an error for connection failure, but got nil")
	if dbpool != nil {
		dbpool.Close()
		t.Errorf("Expected nil dbpool, got: %v", err)
	}

	expectedErr := "unable to create connection to PostgreSQL" // Error from NewWithConfig
	expectedErr2 := "failed to ping PostgreSQL DB"             // Error from Ping
	expectedErr3 := "no such host"                             // DNS error

	if !strings.Contains(err.Error(), expectedErr) &&
		!strings.Contains(err.Error(), expectedErr2) &&
		!strings.Contains(err.Error(), expectedErr3) {
		t.Errorf(
			"Expected error to contain '%s' or '%s' or '%s', got: %v",
			expectedErr,
			expectedErr2,
			expectedErr3,
			err,
		)
	}
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - creates all three record sets", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS employees`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS shifts`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS operations`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		err = repo.EnsureSchema(ctx)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - first statement fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS employees`).WillReturnError(assert.AnError)

		err = repo.EnsureSchema(ctx)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
