package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/core"
	"staffhub/internal/platform/config"
	"staffhub/internal/platform/db"
)

// Advisory key serializing schema setup across test packages that share
// the database.
const testSetupLockKey = 874210

type dbEnv struct {
	pool *pgxpool.Pool
	svc  *Service
	core *core.Store
	att  *attendance.Store
}

func newDBEnv(t *testing.T) *dbEnv {
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

	coreStore := core.NewStore(pool)
	attStore := attendance.NewStore(pool)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &dbEnv{
		pool: pool,
		svc:  NewService(NewStore(pool), coreStore, attStore, logger),
		core: coreStore,
		att:  attStore,
	}
}

func (env *dbEnv) createEmployee(t *testing.T, salary float64) core.Employee {
	t.Helper()
	emp := core.Employee{
		FirstName:     "Payroll",
		LastName:      "Fixture",
		Email:         fmt.Sprintf("payroll-db-%d@example.com", time.Now().UnixNano()),
		Status:        core.StatusActive,
		MonthlySalary: &salary,
	}
	id, err := env.core.Create(context.Background(), emp)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	emp.ID = id
	return emp
}

func (env *dbEnv) savedRecord(t *testing.T, employeeID string, year, month int) *Record {
	t.Helper()
	rec, err := env.svc.SaveInput(context.Background(), Input{EmployeeID: employeeID, Year: year, Month: month})
	if err != nil {
		t.Fatalf("save input: %v", err)
	}
	if rec == nil || rec.ID == "" {
		t.Fatal("expected a stored record with an id")
	}
	return rec
}

func TestRecordForReturnsLockedRecordVerbatim(t *testing.T) {
	env := newDBEnv(t)
	ctx := context.Background()
	emp := env.createEmployee(t, 6000)
	year, month := 2030, 5

	saved := env.savedRecord(t, emp.ID, year, month)
	locked, err := env.svc.LockRecord(ctx, saved.ID)
	if err != nil {
		t.Fatalf("lock record: %v", err)
	}
	if !locked.IsLocked || locked.LockedAt == nil {
		t.Fatalf("expected locked record with lockedAt, got %+v", locked)
	}

	// Attendance recorded after the lock must not leak into reads.
	if _, err := env.att.Mark(ctx, attendance.Record{
		EmployeeID: emp.ID,
		Date:       time.Date(year, time.Month(month), 6, 0, 0, 0, 0, time.UTC),
		Status:     attendance.StatusAbsent,
	}); err != nil {
		t.Fatalf("mark attendance: %v", err)
	}

	got, err := env.svc.RecordFor(ctx, emp.ID, year, month)
	if err != nil {
		t.Fatalf("record for: %v", err)
	}
	if got == nil || !got.IsLocked {
		t.Fatalf("expected the locked record back, got %+v", got)
	}
	if got.AbsenceDeduction != locked.AbsenceDeduction || got.NetSalary != locked.NetSalary {
		t.Fatalf("locked figures changed: got net %v deduction %v, want net %v deduction %v",
			got.NetSalary, got.AbsenceDeduction, locked.NetSalary, locked.AbsenceDeduction)
	}
	if !got.GeneratedAt.Equal(locked.GeneratedAt) {
		t.Fatalf("expected generatedAt %v unchanged, got %v", locked.GeneratedAt, got.GeneratedAt)
	}

	// Preview with overrides is refused the same way.
	preview, err := env.svc.Preview(ctx, Input{
		EmployeeID:      emp.ID,
		Year:            year,
		Month:           month,
		ManualAdditions: []Item{{Name: "bonus", Amount: 1000, IsTaxable: true}},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.NetSalary != locked.NetSalary {
		t.Fatalf("preview recomputed a locked period: got %v, want %v", preview.NetSalary, locked.NetSalary)
	}
}

func TestLockIsTerminal(t *testing.T) {
	env := newDBEnv(t)
	ctx := context.Background()
	emp := env.createEmployee(t, 4500)
	year, month := 2030, 6

	saved := env.savedRecord(t, emp.ID, year, month)
	if _, err := env.svc.LockRecord(ctx, saved.ID); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := env.svc.LockRecord(ctx, saved.ID); !errors.Is(err, ErrRecordLocked) {
		t.Fatalf("expected ErrRecordLocked on second lock, got %v", err)
	}
	if _, err := env.svc.SaveInput(ctx, Input{EmployeeID: emp.ID, Year: year, Month: month}); !errors.Is(err, ErrRecordLocked) {
		t.Fatalf("expected ErrRecordLocked saving input for a locked period, got %v", err)
	}
	if err := env.svc.Store.DeleteRecord(ctx, saved.ID); !errors.Is(err, ErrRecordLocked) {
		t.Fatalf("expected ErrRecordLocked deleting a locked record, got %v", err)
	}

	still, err := env.svc.Store.GetRecordByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if !still.IsLocked {
		t.Fatal("expected record to stay locked")
	}
}

func TestUpsertRefusesLockedRow(t *testing.T) {
	env := newDBEnv(t)
	ctx := context.Background()
	emp := env.createEmployee(t, 5200)
	year, month := 2030, 7

	saved := env.savedRecord(t, emp.ID, year, month)
	if _, err := env.svc.LockRecord(ctx, saved.ID); err != nil {
		t.Fatalf("lock record: %v", err)
	}

	fresh := *saved
	fresh.NetSalary = 1
	if err := env.svc.Store.UpsertRecord(ctx, &fresh); !errors.Is(err, ErrRecordLocked) {
		t.Fatalf("expected ErrRecordLocked from guarded upsert, got %v", err)
	}

	still, err := env.svc.Store.GetRecordByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if still.NetSalary != saved.NetSalary {
		t.Fatalf("locked record was overwritten: got net %v, want %v", still.NetSalary, saved.NetSalary)
	}
}

func TestGenerateSkipsLockedRecords(t *testing.T) {
	env := newDBEnv(t)
	ctx := context.Background()
	lockedEmp := env.createEmployee(t, 5000)
	openEmp := env.createEmployee(t, 5000)
	year, month := 2031, 3

	lockedRec := env.savedRecord(t, lockedEmp.ID, year, month)
	if _, err := env.svc.LockRecord(ctx, lockedRec.ID); err != nil {
		t.Fatalf("lock record: %v", err)
	}
	if _, err := env.att.Mark(ctx, attendance.Record{
		EmployeeID: lockedEmp.ID,
		Date:       time.Date(year, time.Month(month), 3, 0, 0, 0, 0, time.UTC),
		Status:     attendance.StatusAbsent,
	}); err != nil {
		t.Fatalf("mark attendance: %v", err)
	}

	summary, err := env.svc.Generate(ctx, year, month)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if summary.Locked < 1 {
		t.Fatalf("expected at least one locked record counted, got %+v", summary)
	}
	if summary.Generated < 1 {
		t.Fatalf("expected at least one generated record, got %+v", summary)
	}

	after, err := env.svc.Store.GetRecord(ctx, lockedEmp.ID, year, month)
	if err != nil {
		t.Fatalf("reload locked record: %v", err)
	}
	if after.NetSalary != lockedRec.NetSalary || after.AbsentDays != 0 {
		t.Fatalf("generate touched a locked record: %+v", after)
	}
	if _, err := env.svc.Store.GetRecord(ctx, openEmp.ID, year, month); err != nil {
		t.Fatalf("expected a generated record for the open employee: %v", err)
	}
}

func TestLockMonthReportsPerRecordOutcomes(t *testing.T) {
	env := newDBEnv(t)
	ctx := context.Background()
	first := env.createEmployee(t, 3800)
	second := env.createEmployee(t, 3800)
	year, month := 2032, 2

	firstRec := env.savedRecord(t, first.ID, year, month)
	secondRec := env.savedRecord(t, second.ID, year, month)
	if _, err := env.svc.LockRecord(ctx, firstRec.ID); err != nil {
		t.Fatalf("pre-lock first record: %v", err)
	}

	outcomes, err := env.svc.LockMonth(ctx, year, month)
	if err != nil {
		t.Fatalf("lock month: %v", err)
	}

	byRecord := make(map[string]LockOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byRecord[outcome.RecordID] = outcome
	}

	got, ok := byRecord[firstRec.ID]
	if !ok {
		t.Fatalf("expected an outcome for the pre-locked record, got %+v", outcomes)
	}
	if got.Locked || got.Error != ErrRecordLocked.Error() {
		t.Fatalf("expected already-locked outcome, got %+v", got)
	}

	got, ok = byRecord[secondRec.ID]
	if !ok {
		t.Fatalf("expected an outcome for the open record, got %+v", outcomes)
	}
	if !got.Locked || got.Error != "" {
		t.Fatalf("expected the open record to lock, got %+v", got)
	}

	after, err := env.svc.Store.GetRecordByID(ctx, secondRec.ID)
	if err != nil {
		t.Fatalf("reload second record: %v", err)
	}
	if !after.IsLocked || after.LockedAt == nil {
		t.Fatalf("expected second record locked with lockedAt, got %+v", after)
	}
}
