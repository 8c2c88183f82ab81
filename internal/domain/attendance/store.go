package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRecordNotFound = errors.New("attendance record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Mark upserts the record for (employee, date). The unique index on that
// pair keeps one record per day regardless of repeated marking.
func (s *Store) Mark(ctx context.Context, rec Record) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (
      employee_id, date, status, check_in_time, check_out_time,
      overtime_hours, lunch_break_minutes
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, date) DO UPDATE SET
      status = EXCLUDED.status,
      check_in_time = EXCLUDED.check_in_time,
      check_out_time = EXCLUDED.check_out_time,
      overtime_hours = EXCLUDED.overtime_hours,
      lunch_break_minutes = EXCLUDED.lunch_break_minutes,
      updated_at = now()
    RETURNING id
  `, rec.EmployeeID, rec.Date, rec.Status, rec.CheckInTime, rec.CheckOutTime,
		rec.OvertimeHours, rec.LunchBreakMinutes).Scan(&id)
	return id, err
}

// Clear deletes the record for a day, resetting it to the unmarked state.
func (s *Store) Clear(ctx context.Context, employeeID string, date time.Time) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendance_records WHERE employee_id = $1 AND date = $2", employeeID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListMonth(ctx context.Context, employeeID string, year, month int) ([]Record, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, date, status, check_in_time, check_out_time,
           overtime_hours, lunch_break_minutes, created_at, updated_at
    FROM attendance_records
    WHERE employee_id = $1 AND date >= $2 AND date < $3
    ORDER BY date
  `, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) ListDay(ctx context.Context, date time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, date, status, check_in_time, check_out_time,
           overtime_hours, lunch_break_minutes, created_at, updated_at
    FROM attendance_records
    WHERE date = $1
    ORDER BY employee_id
  `, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.CheckInTime,
			&rec.CheckOutTime, &rec.OvertimeHours, &rec.LunchBreakMinutes,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
