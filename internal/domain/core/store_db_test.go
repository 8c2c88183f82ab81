package core_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/core"
	"staffhub/internal/platform/config"
	"staffhub/internal/platform/db"
)

const testSetupLockKey = 874210

func newTestStore(t *testing.T) *core.Store {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	setup, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire setup connection: %v", err)
	}
	if _, err := setup.Exec(ctx, "SELECT pg_advisory_lock($1)", testSetupLockKey); err != nil {
		setup.Release()
		t.Fatalf("acquire setup lock: %v", err)
	}
	migrateErr := db.Migrate(ctx, pool, "../../../migrations")
	var seedErr error
	if migrateErr == nil {
		seedErr = db.Seed(ctx, pool, config.Config{})
	}
	_, _ = setup.Exec(ctx, "SELECT pg_advisory_unlock($1)", testSetupLockKey)
	setup.Release()
	if migrateErr != nil {
		t.Fatalf("migrate test database: %v", migrateErr)
	}
	if seedErr != nil {
		t.Fatalf("seed test database: %v", seedErr)
	}

	return core.NewStore(pool)
}

func TestGetToleratesNullOptionalColumns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Rows written outside the API can carry NULLs in every optional column.
	var id string
	err := store.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email)
    VALUES ('Null', 'Columns', $1)
    RETURNING id
  `, fmt.Sprintf("core-db-%d@example.com", time.Now().UnixNano())).Scan(&id)
	if err != nil {
		t.Fatalf("insert bare employee: %v", err)
	}

	emp, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get employee with null optionals: %v", err)
	}
	if emp.Position != "" || emp.Department != "" || emp.BankName != "" {
		t.Fatalf("expected empty strings for null columns, got %+v", emp)
	}
	if emp.MonthlySalary != nil || emp.AnnualLeaveDays != nil || emp.HireDate != nil {
		t.Fatalf("expected nil pointers for null numerics, got %+v", emp)
	}

	employees, _, err := store.List(ctx, core.StatusActive, 0, 0)
	if err != nil {
		t.Fatalf("list with null optionals present: %v", err)
	}
	found := false
	for _, candidate := range employees {
		if candidate.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the bare employee in the active list")
	}
}
