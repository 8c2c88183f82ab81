package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/core"
)

type Service struct {
	DB   *pgxpool.Pool
	Core *core.Store
}

func NewService(db *pgxpool.Pool, coreStore *core.Store) *Service {
	return &Service{DB: db, Core: coreStore}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so snapshot loading
// can run inside the approval transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Service) Policies(ctx context.Context) (PolicySet, error) {
	return loadPolicies(ctx, s.DB)
}

func loadPolicies(ctx context.Context, q querier) (PolicySet, error) {
	rows, err := q.Query(ctx, `
    SELECT type, max_days_per_year, is_statutory, deducts_from_annual, description
    FROM leave_policies
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make(PolicySet)
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.Type, &p.MaxDaysPerYear, &p.IsStatutory, &p.DeductsFromAnnual, &p.Description); err != nil {
			return nil, err
		}
		policies[p.Type] = p
	}
	return policies, nil
}

func (s *Service) ListHolidays(ctx context.Context) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, date, name FROM holidays ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Service) CreateHoliday(ctx context.Context, date time.Time, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (date, name)
    VALUES ($1,$2)
    ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, date, name).Scan(&id)
	return id, err
}

func (s *Service) DeleteHoliday(ctx context.Context, holidayID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE id = $1", holidayID)
	return err
}

// HolidayCalendar loads the full holiday table into a Calendar. The table
// is small (tens of rows per year), so no year filter is applied.
func (s *Service) HolidayCalendar(ctx context.Context) (Calendar, error) {
	return loadCalendar(ctx, s.DB)
}

func loadCalendar(ctx context.Context, q querier) (Calendar, error) {
	rows, err := q.Query(ctx, "SELECT date FROM holidays")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cal := make(Calendar)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		cal.Add(date)
	}
	return cal, nil
}

type snapshot struct {
	employee *core.Employee
	requests []Request
	policies PolicySet
	calendar Calendar
}

func (s *Service) loadSnapshot(ctx context.Context, q querier, employeeID string) (snapshot, error) {
	var snap snapshot

	emp, err := s.Core.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			return snap, nil
		}
		return snap, err
	}
	snap.employee = &emp

	rows, err := q.Query(ctx, `
    SELECT id, employee_id, type, start_date, end_date, days, reason, status, requested_at
    FROM leave_requests
    WHERE employee_id = $1 AND status = $2
  `, employeeID, StatusApproved)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status, &req.RequestedAt); err != nil {
			return snap, err
		}
		snap.requests = append(snap.requests, req)
	}

	if snap.policies, err = loadPolicies(ctx, q); err != nil {
		return snap, err
	}
	if snap.calendar, err = loadCalendar(ctx, q); err != nil {
		return snap, err
	}
	return snap, nil
}

// BalancesFor recomputes the derived balance map for one employee and year.
func (s *Service) BalancesFor(ctx context.Context, employeeID string, year int) (map[string]Balance, error) {
	snap, err := s.loadSnapshot(ctx, s.DB, employeeID)
	if err != nil {
		return nil, err
	}
	return Balances(snap.employee, snap.requests, snap.policies, snap.calendar, year), nil
}

// Validate dry-runs a proposed request against current data.
func (s *Service) Validate(ctx context.Context, employeeID, typ string, start, end time.Time) (Validation, error) {
	year := start.Year()
	snap, err := s.loadSnapshot(ctx, s.DB, employeeID)
	if err != nil {
		return Validation{}, err
	}
	balances := Balances(snap.employee, snap.requests, snap.policies, snap.calendar, year)
	return ValidateRequest(typ, start, end, snap.calendar, balances), nil
}

// CreateRequest validates against a fresh snapshot and inserts the request
// as pending. A failed validation is returned to the caller, not an error.
func (s *Service) CreateRequest(ctx context.Context, employeeID, typ, reason string, start, end time.Time) (Request, Validation, error) {
	validation, err := s.Validate(ctx, employeeID, typ, start, end)
	if err != nil {
		return Request{}, Validation{}, err
	}
	if !validation.Valid {
		return Request{}, validation, nil
	}

	req := Request{
		EmployeeID: employeeID,
		Type:       typ,
		StartDate:  start,
		EndDate:    end,
		Days:       validation.Days,
		Reason:     reason,
		Status:     StatusPending,
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, type, start_date, end_date, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, requested_at
  `, employeeID, typ, start, end, validation.Days, reason, StatusPending).Scan(&req.ID, &req.RequestedAt)
	if err != nil {
		return Request{}, Validation{}, err
	}
	return req, validation, nil
}

type RequestFilter struct {
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}

func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT id, employee_id, type, start_date, end_date, days, reason, status,
           requested_at, COALESCE(decided_by::text, ''), decided_at
    FROM leave_requests` + where + " ORDER BY requested_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status, &req.RequestedAt, &req.DecidedBy, &req.DecidedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (Request, error) {
	var req Request
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, type, start_date, end_date, days, reason, status,
           requested_at, COALESCE(decided_by::text, ''), decided_at
    FROM leave_requests
    WHERE id = $1
  `, requestID).Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status, &req.RequestedAt, &req.DecidedBy, &req.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return req, err
}

// Approve flips a pending request to approved. The balance check runs again
// here, inside the transaction that holds the row lock, so requests approved
// after this one was submitted still count against the balance.
func (s *Service) Approve(ctx context.Context, requestID, deciderUserID string) (Request, Validation, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, Validation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var req Request
	err = tx.QueryRow(ctx, `
    SELECT id, employee_id, type, start_date, end_date, days, reason, status, requested_at
    FROM leave_requests
    WHERE id = $1
    FOR UPDATE
  `, requestID).Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status, &req.RequestedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, Validation{}, ErrRequestNotFound
	}
	if err != nil {
		return Request{}, Validation{}, err
	}
	if req.Status != StatusPending {
		return Request{}, Validation{}, ErrInvalidState
	}

	year := req.StartDate.Year()
	snap, err := s.loadSnapshot(ctx, tx, req.EmployeeID)
	if err != nil {
		return Request{}, Validation{}, err
	}
	balances := Balances(snap.employee, snap.requests, snap.policies, snap.calendar, year)
	validation := ValidateRequest(req.Type, req.StartDate, req.EndDate, snap.calendar, balances)
	if !validation.Valid {
		return req, validation, ErrInsufficientBalance
	}

	err = tx.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, days = $3, decided_by = $4, decided_at = now()
    WHERE id = $1
    RETURNING decided_at
  `, requestID, StatusApproved, validation.Days, deciderUserID).Scan(&req.DecidedAt)
	if err != nil {
		return Request{}, Validation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, Validation{}, err
	}

	req.Status = StatusApproved
	req.Days = validation.Days
	req.DecidedBy = deciderUserID
	return req, validation, nil
}

// Reject flips a pending request to rejected, a terminal state.
func (s *Service) Reject(ctx context.Context, requestID, deciderUserID string) (Request, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	err = s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $2, decided_by = $3, decided_at = now()
    WHERE id = $1 AND status = $4
    RETURNING decided_at
  `, requestID, StatusRejected, deciderUserID, StatusPending).Scan(&req.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrInvalidState
	}
	if err != nil {
		return Request{}, err
	}
	req.Status = StatusRejected
	req.DecidedBy = deciderUserID
	return req, nil
}
