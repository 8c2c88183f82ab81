package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/leave"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) HeadcountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, "SELECT status, COUNT(1) FROM employees GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, nil
}

func (s *Store) PendingLeaveCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM leave_requests WHERE status = $1", leave.StatusPending).Scan(&count)
	return count, err
}

func (s *Store) OnLeaveToday(ctx context.Context, today time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT employee_id) FROM leave_requests
    WHERE status = $1 AND start_date <= $2 AND end_date >= $2
  `, leave.StatusApproved, today).Scan(&count)
	return count, err
}

func (s *Store) PayrollTotals(ctx context.Context, year, month int) (gross, net float64, locked, total int, err error) {
	err = s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(gross_earnings),0), COALESCE(SUM(net_salary),0),
           COUNT(1) FILTER (WHERE is_locked), COUNT(1)
    FROM payroll_records
    WHERE year = $1 AND month = $2
  `, year, month).Scan(&gross, &net, &locked, &total)
	return
}

func (s *Store) AttendanceSummary(ctx context.Context, year, month int) (map[string]int, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1) FROM attendance_records
    WHERE date >= $1 AND date < $2
    GROUP BY status
  `, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, nil
}

type RegisterRow struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Department string
	Gross      float64
	Pension    float64
	PAYE       float64
	Deductions float64
	Net        float64
	Currency   string
	IsLocked   bool
}

func (s *Store) PayrollRegister(ctx context.Context, year, month int) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.employee_id, e.first_name, e.last_name, COALESCE(e.department, ''),
           r.gross_earnings, r.pension_amount, r.paye_amount,
           r.total_manual_deductions, r.net_salary, r.currency, r.is_locked
    FROM payroll_records r
    JOIN employees e ON e.id = r.employee_id
    WHERE r.year = $1 AND r.month = $2
    ORDER BY e.last_name, e.first_name
  `, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		if err := rows.Scan(&row.EmployeeID, &row.FirstName, &row.LastName, &row.Department,
			&row.Gross, &row.Pension, &row.PAYE, &row.Deductions, &row.Net, &row.Currency, &row.IsLocked); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

type LeaveSpan struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Days       int
}

// LeaveSpans returns approved leave overlapping the given month.
func (s *Store) LeaveSpans(ctx context.Context, year, month int) ([]LeaveSpan, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.Query(ctx, `
    SELECT lr.employee_id, e.first_name, e.last_name, lr.type, lr.start_date, lr.end_date, lr.days
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE lr.status = $1 AND lr.start_date < $3 AND lr.end_date >= $2
    ORDER BY lr.start_date, e.last_name
  `, leave.StatusApproved, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaveSpan
	for rows.Next() {
		var span LeaveSpan
		if err := rows.Scan(&span.EmployeeID, &span.FirstName, &span.LastName, &span.Type,
			&span.StartDate, &span.EndDate, &span.Days); err != nil {
			return nil, err
		}
		out = append(out, span)
	}
	return out, nil
}

func (s *Store) HolidaysInMonth(ctx context.Context, year, month int) ([]leave.Holiday, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, name FROM holidays
    WHERE date >= $1 AND date < $2
    ORDER BY date
  `, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

type JobRun struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Detail     string     `json:"detail"`
}

func (s *Store) ListJobRuns(ctx context.Context, name string, limit, offset int) ([]JobRun, error) {
	query := "SELECT id, name, started_at, finished_at, COALESCE(detail, '') FROM job_runs"
	args := []any{}
	if name != "" {
		args = append(args, name)
		query += " WHERE name = $1"
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRun
	for rows.Next() {
		var run JobRun
		if err := rows.Scan(&run.ID, &run.Name, &run.StartedAt, &run.FinishedAt, &run.Detail); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}
