package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/core"
)

type Service struct {
	Store      *Store
	Core       *core.Store
	Attendance *attendance.Store
	Logger     *slog.Logger
}

func NewService(store *Store, coreStore *core.Store, att *attendance.Store, logger *slog.Logger) *Service {
	return &Service{Store: store, Core: coreStore, Attendance: att, Logger: logger}
}

// compute loads the snapshot for one employee-month and derives a draft
// record. input overrides the stored manual input when non-nil, which is
// how previews see unsaved edits. A nil record with nil error means the
// employee is not payable for the period.
func (s *Service) compute(ctx context.Context, employeeID string, year, month int, input *Input) (*Record, error) {
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	emp, err := s.Core.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	records, err := s.Attendance.ListMonth(ctx, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	if input == nil {
		if input, err = s.Store.GetInput(ctx, employeeID, year, month); err != nil {
			return nil, err
		}
	}

	rec := Calculate(&emp, settings, records, input, time.Now().UTC())
	if rec == nil {
		return nil, nil
	}
	rec.Year = year
	rec.Month = month
	return rec, nil
}

// RecordFor returns the authoritative record for an employee-month. A
// locked stored record wins unconditionally and is returned verbatim;
// otherwise a fresh draft is computed from current data.
func (s *Service) RecordFor(ctx context.Context, employeeID string, year, month int) (*Record, error) {
	stored, err := s.Store.GetRecord(ctx, employeeID, year, month)
	switch {
	case err == nil && stored.IsLocked:
		return &stored, nil
	case err != nil && !errors.Is(err, ErrRecordNotFound):
		return nil, err
	}
	return s.compute(ctx, employeeID, year, month, nil)
}

// Preview computes a what-if record with the given input, without saving
// anything. Locked periods still return the locked record verbatim.
func (s *Service) Preview(ctx context.Context, input Input) (*Record, error) {
	stored, err := s.Store.GetRecord(ctx, input.EmployeeID, input.Year, input.Month)
	switch {
	case err == nil && stored.IsLocked:
		return &stored, nil
	case err != nil && !errors.Is(err, ErrRecordNotFound):
		return nil, err
	}
	return s.compute(ctx, input.EmployeeID, input.Year, input.Month, &input)
}

// SaveInput persists manual overrides and recomputes the stored record so
// the persisted figures stay in step with the input that produced them.
func (s *Service) SaveInput(ctx context.Context, input Input) (*Record, error) {
	if err := s.Store.PutInput(ctx, input); err != nil {
		return nil, err
	}
	rec, err := s.compute(ctx, input.EmployeeID, input.Year, input.Month, &input)
	if err != nil || rec == nil {
		return rec, err
	}
	if err := s.Store.UpsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Generate recomputes and persists a record for every active employee in
// the period. Employees without a payable salary are skipped silently;
// locked records are left untouched and counted separately.
func (s *Service) Generate(ctx context.Context, year, month int) (GenerateSummary, error) {
	startedAt := time.Now().UTC()
	summary := GenerateSummary{Year: year, Month: month}

	employees, err := s.Core.ListActive(ctx)
	if err != nil {
		return summary, err
	}

	for i := range employees {
		emp := &employees[i]
		rec, err := s.compute(ctx, emp.ID, year, month, nil)
		if err != nil {
			return summary, fmt.Errorf("compute payroll for %s: %w", emp.ID, err)
		}
		if rec == nil {
			summary.Skipped++
			continue
		}
		err = s.Store.UpsertRecord(ctx, rec)
		if errors.Is(err, ErrRecordLocked) {
			summary.Locked++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("save payroll for %s: %w", emp.ID, err)
		}
		summary.Generated++
	}

	detail := fmt.Sprintf("period=%04d-%02d generated=%d skipped=%d locked=%d",
		year, month, summary.Generated, summary.Skipped, summary.Locked)
	if err := s.Store.RecordJobRun(ctx, "payroll.generate", startedAt, detail); err != nil {
		s.Logger.Warn("record job run", "error", err)
	}
	return summary, nil
}

// LockRecord locks one record.
func (s *Service) LockRecord(ctx context.Context, recordID string) (Record, error) {
	return s.Store.Lock(ctx, recordID)
}

// LockMonth locks every stored record in the period independently. One
// failure never blocks the rest; the caller gets a per-record outcome list.
func (s *Service) LockMonth(ctx context.Context, year, month int) ([]LockOutcome, error) {
	startedAt := time.Now().UTC()
	records, err := s.Store.ListMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	outcomes := make([]LockOutcome, 0, len(records))
	locked := 0
	for _, rec := range records {
		outcome := LockOutcome{RecordID: rec.ID, EmployeeID: rec.EmployeeID}
		if rec.IsLocked {
			outcome.Error = ErrRecordLocked.Error()
		} else if _, err := s.Store.Lock(ctx, rec.ID); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Locked = true
			locked++
		}
		outcomes = append(outcomes, outcome)
	}

	detail := fmt.Sprintf("period=%04d-%02d locked=%d of=%d", year, month, locked, len(records))
	if err := s.Store.RecordJobRun(ctx, "payroll.lock_month", startedAt, detail); err != nil {
		s.Logger.Warn("record job run", "error", err)
	}
	return outcomes, nil
}

// MonthView lists the period's stored records.
func (s *Service) MonthView(ctx context.Context, year, month int) ([]Record, error) {
	return s.Store.ListMonth(ctx, year, month)
}
