package core

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, first_name, last_name, email, COALESCE(position, ''),
    COALESCE(department, ''), status, hire_date, monthly_salary,
    housing_allowance, transport_allowance, annual_leave_days,
    COALESCE(bank_name, ''), COALESCE(bank_account, ''),
    created_at, updated_at
`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Position,
		&emp.Department, &emp.Status, &emp.HireDate, &emp.MonthlySalary,
		&emp.HousingAllowance, &emp.TransportAllowance, &emp.AnnualLeaveDays,
		&emp.BankName, &emp.BankAccount, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (s *Store) List(ctx context.Context, status string, limit, offset int) ([]Employee, int, error) {
	countQuery := "SELECT COUNT(1) FROM employees"
	query := "SELECT " + employeeColumns + " FROM employees"
	args := []any{}
	if status != "" {
		countQuery += " WHERE status = $1"
		query += " WHERE status = $1"
		args = append(args, status)
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY last_name, first_name"
	if limit > 0 {
		limitPos := len(args) + 1
		offsetPos := len(args) + 2
		query += " LIMIT $" + itoa(limitPos) + " OFFSET $" + itoa(offsetPos)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	return out, total, nil
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	out, _, err := s.List(ctx, StatusActive, 0, 0)
	return out, err
}

func (s *Store) Create(ctx context.Context, emp Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      first_name, last_name, email, position, department, status,
      hire_date, monthly_salary, housing_allowance, transport_allowance,
      annual_leave_days, bank_name, bank_account
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, emp.FirstName, emp.LastName, emp.Email, emp.Position, emp.Department,
		emp.Status, emp.HireDate, emp.MonthlySalary, emp.HousingAllowance,
		emp.TransportAllowance, emp.AnnualLeaveDays, nullIfEmpty(emp.BankName),
		nullIfEmpty(emp.BankAccount)).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, emp Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      first_name = $2, last_name = $3, email = $4, position = $5,
      department = $6, hire_date = $7, monthly_salary = $8,
      housing_allowance = $9, transport_allowance = $10,
      annual_leave_days = $11, bank_name = $12, bank_account = $13,
      updated_at = now()
    WHERE id = $1
  `, emp.ID, emp.FirstName, emp.LastName, emp.Email, emp.Position,
		emp.Department, emp.HireDate, emp.MonthlySalary, emp.HousingAllowance,
		emp.TransportAllowance, emp.AnnualLeaveDays, nullIfEmpty(emp.BankName),
		nullIfEmpty(emp.BankAccount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
