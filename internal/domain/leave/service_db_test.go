package leave_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/core"
	"staffhub/internal/domain/leave"
	"staffhub/internal/platform/config"
	"staffhub/internal/platform/db"
)

// Same advisory key the payroll tier uses, so schema setup is serialized
// when packages run in parallel against one database.
const testSetupLockKey = 874210

const testAdminEmail = "leave-db-admin@example.com"

type leaveEnv struct {
	pool    *pgxpool.Pool
	svc     *leave.Service
	core    *core.Store
	adminID string
}

func newLeaveEnv(t *testing.T) *leaveEnv {
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
		seedErr = db.Seed(ctx, pool, config.Config{
			SeedAdminEmail:    testAdminEmail,
			SeedAdminPassword: "leave-db-test-password",
		})
	}
	_, _ = setup.Exec(ctx, "SELECT pg_advisory_unlock($1)", testSetupLockKey)
	setup.Release()
	if migrateErr != nil {
		t.Fatalf("migrate test database: %v", migrateErr)
	}
	if seedErr != nil {
		t.Fatalf("seed test database: %v", seedErr)
	}

	var adminID string
	if err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", testAdminEmail).Scan(&adminID); err != nil {
		t.Fatalf("load seeded admin: %v", err)
	}

	coreStore := core.NewStore(pool)
	return &leaveEnv{
		pool:    pool,
		svc:     leave.NewService(pool, coreStore),
		core:    coreStore,
		adminID: adminID,
	}
}

func (env *leaveEnv) createEmployee(t *testing.T) core.Employee {
	t.Helper()
	emp := core.Employee{
		FirstName: "Leave",
		LastName:  "Fixture",
		Email:     fmt.Sprintf("leave-db-%d@example.com", time.Now().UnixNano()),
		Status:    core.StatusActive,
	}
	id, err := env.core.Create(context.Background(), emp)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	emp.ID = id
	return emp
}

func (env *leaveEnv) pendingRequest(t *testing.T, employeeID string, start, end time.Time, wantDays int) leave.Request {
	t.Helper()
	req, validation, err := env.svc.CreateRequest(context.Background(), employeeID, leave.TypeAnnual, "trip", start, end)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if !validation.Valid {
		t.Fatalf("expected valid request, got %q", validation.Message)
	}
	if req.Days != wantDays {
		t.Fatalf("expected %d working days, got %d", wantDays, req.Days)
	}
	return req
}

func TestApproveRevalidatesAgainstCurrentBalance(t *testing.T) {
	env := newLeaveEnv(t)
	ctx := context.Background()
	emp := env.createEmployee(t)

	// Two pending requests, each within the 21-day annual cap on its own
	// but 25 working days together.
	first := env.pendingRequest(t, emp.ID,
		time.Date(2033, 3, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2033, 3, 25, 0, 0, 0, 0, time.UTC), 15)
	second := env.pendingRequest(t, emp.ID,
		time.Date(2033, 4, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2033, 4, 15, 0, 0, 0, 0, time.UTC), 10)

	approved, _, err := env.svc.Approve(ctx, first.ID, env.adminID)
	if err != nil {
		t.Fatalf("approve first request: %v", err)
	}
	if approved.Status != leave.StatusApproved || approved.DecidedBy != env.adminID {
		t.Fatalf("unexpected approved request %+v", approved)
	}

	_, validation, err := env.svc.Approve(ctx, second.ID, env.adminID)
	if !errors.Is(err, leave.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on second approval, got %v", err)
	}
	if !strings.Contains(validation.Message, "6 day(s) remaining") {
		t.Fatalf("expected message with the remaining balance, got %q", validation.Message)
	}

	// The failed approval leaves the request pending.
	still, err := env.svc.GetRequest(ctx, second.ID)
	if err != nil {
		t.Fatalf("reload second request: %v", err)
	}
	if still.Status != leave.StatusPending {
		t.Fatalf("expected pending after failed approval, got %s", still.Status)
	}

	balances, err := env.svc.BalancesFor(ctx, emp.ID, 2033)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	annual := balances[leave.TypeAnnual]
	if annual.Used != 15 || annual.Remaining != 6 {
		t.Fatalf("expected used 15 remaining 6, got %+v", annual)
	}
}

func TestLeaveDecisionsAreTerminal(t *testing.T) {
	env := newLeaveEnv(t)
	ctx := context.Background()
	emp := env.createEmployee(t)

	req := env.pendingRequest(t, emp.ID,
		time.Date(2033, 6, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2033, 6, 7, 0, 0, 0, 0, time.UTC), 2)

	if _, _, err := env.svc.Approve(ctx, req.ID, env.adminID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, _, err := env.svc.Approve(ctx, req.ID, env.adminID); !errors.Is(err, leave.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState re-approving, got %v", err)
	}
	if _, err := env.svc.Reject(ctx, req.ID, env.adminID); !errors.Is(err, leave.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState rejecting an approved request, got %v", err)
	}

	got, err := env.svc.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if got.Status != leave.StatusApproved {
		t.Fatalf("expected request to stay approved, got %s", got.Status)
	}
}
