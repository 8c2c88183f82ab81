package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var (
		settings Settings
		brackets []byte
	)
	err := s.DB.QueryRow(ctx, `
    SELECT working_days_per_month, working_hours_per_day, overtime_multiplier,
           currency, pension_enabled, pension_percentage, paye_enabled,
           tax_credit_monthly, rounding_decimals, tax_brackets
    FROM payroll_settings
    WHERE id = 1
  `).Scan(
		&settings.WorkingDaysPerMonth, &settings.WorkingHoursPerDay, &settings.OvertimeMultiplier,
		&settings.Currency, &settings.PensionEnabled, &settings.PensionPercentage, &settings.PAYEEnabled,
		&settings.TaxCreditMonthly, &settings.RoundingDecimals, &brackets,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(brackets, &settings.TaxBrackets); err != nil {
		return Settings{}, fmt.Errorf("decode tax brackets: %w", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	if err := ValidateBrackets(settings.TaxBrackets); err != nil {
		return err
	}
	brackets, err := json.Marshal(settings.TaxBrackets)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_settings (
      id, working_days_per_month, working_hours_per_day, overtime_multiplier,
      currency, pension_enabled, pension_percentage, paye_enabled,
      tax_credit_monthly, rounding_decimals, tax_brackets, updated_at
    ) VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
    ON CONFLICT (id) DO UPDATE SET
      working_days_per_month = EXCLUDED.working_days_per_month,
      working_hours_per_day = EXCLUDED.working_hours_per_day,
      overtime_multiplier = EXCLUDED.overtime_multiplier,
      currency = EXCLUDED.currency,
      pension_enabled = EXCLUDED.pension_enabled,
      pension_percentage = EXCLUDED.pension_percentage,
      paye_enabled = EXCLUDED.paye_enabled,
      tax_credit_monthly = EXCLUDED.tax_credit_monthly,
      rounding_decimals = EXCLUDED.rounding_decimals,
      tax_brackets = EXCLUDED.tax_brackets,
      updated_at = now()
  `,
		settings.WorkingDaysPerMonth, settings.WorkingHoursPerDay, settings.OvertimeMultiplier,
		settings.Currency, settings.PensionEnabled, settings.PensionPercentage, settings.PAYEEnabled,
		settings.TaxCreditMonthly, settings.RoundingDecimals, brackets,
	)
	return err
}

// GetInput returns the manual input for an employee-month, or nil when none
// has been saved. Missing input is not an error: it means all-zero
// overrides.
func (s *Store) GetInput(ctx context.Context, employeeID string, year, month int) (*Input, error) {
	var (
		input      Input
		additions  []byte
		deductions []byte
	)
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, year, month, manual_additions, manual_deductions, manual_overtime_hours
    FROM payroll_inputs
    WHERE employee_id = $1 AND year = $2 AND month = $3
  `, employeeID, year, month).Scan(
		&input.EmployeeID, &input.Year, &input.Month, &additions, &deductions, &input.ManualOvertimeHours,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(additions, &input.ManualAdditions); err != nil {
		return nil, fmt.Errorf("decode manual additions: %w", err)
	}
	if err := json.Unmarshal(deductions, &input.ManualDeductions); err != nil {
		return nil, fmt.Errorf("decode manual deductions: %w", err)
	}
	return &input, nil
}

// PutInput upserts the manual input for an employee-month. Refused with
// ErrRecordLocked when the period's payroll record is already locked.
func (s *Store) PutInput(ctx context.Context, input Input) error {
	locked, err := s.isPeriodLocked(ctx, input.EmployeeID, input.Year, input.Month)
	if err != nil {
		return err
	}
	if locked {
		return ErrRecordLocked
	}

	additions, err := json.Marshal(emptyIfNil(input.ManualAdditions))
	if err != nil {
		return err
	}
	deductions, err := json.Marshal(emptyIfNil(input.ManualDeductions))
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_inputs (employee_id, year, month, manual_additions, manual_deductions, manual_overtime_hours, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6, now())
    ON CONFLICT (employee_id, year, month) DO UPDATE SET
      manual_additions = EXCLUDED.manual_additions,
      manual_deductions = EXCLUDED.manual_deductions,
      manual_overtime_hours = EXCLUDED.manual_overtime_hours,
      updated_at = now()
  `, input.EmployeeID, input.Year, input.Month, additions, deductions, input.ManualOvertimeHours)
	return err
}

func emptyIfNil(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	return items
}

const recordColumns = `
  id, employee_id, year, month, base_salary, housing_allowance, transport_allowance,
  overtime_hours, overtime_pay, absent_days, absence_deduction, total_additions,
  total_manual_deductions, gross_earnings, taxable_earnings, pension_amount,
  paye_amount, net_salary, currency, is_locked, locked_at, generated_at
`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Year, &rec.Month, &rec.BaseSalary,
		&rec.HousingAllowance, &rec.TransportAllowance, &rec.OvertimeHours,
		&rec.OvertimePay, &rec.AbsentDays, &rec.AbsenceDeduction,
		&rec.TotalAdditions, &rec.TotalManualDeductions, &rec.GrossEarnings,
		&rec.TaxableEarnings, &rec.PensionAmount, &rec.PAYEAmount,
		&rec.NetSalary, &rec.Currency, &rec.IsLocked, &rec.LockedAt, &rec.GeneratedAt,
	)
	return rec, err
}

// GetRecord fetches the stored record for an employee-month, locked or not.
func (s *Store) GetRecord(ctx context.Context, employeeID string, year, month int) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx,
		"SELECT"+recordColumns+"FROM payroll_records WHERE employee_id = $1 AND year = $2 AND month = $3",
		employeeID, year, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) GetRecordByID(ctx context.Context, recordID string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx,
		"SELECT"+recordColumns+"FROM payroll_records WHERE id = $1", recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) ListMonth(ctx context.Context, year, month int) ([]Record, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT"+recordColumns+"FROM payroll_records WHERE year = $1 AND month = $2 ORDER BY employee_id",
		year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpsertRecord writes a computed record. The is_locked predicate in both
// branches is the write-boundary guard: a locked row is never touched, and
// the attempt surfaces as ErrRecordLocked.
func (s *Store) UpsertRecord(ctx context.Context, rec *Record) error {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (
      employee_id, year, month, base_salary, housing_allowance, transport_allowance,
      overtime_hours, overtime_pay, absent_days, absence_deduction, total_additions,
      total_manual_deductions, gross_earnings, taxable_earnings, pension_amount,
      paye_amount, net_salary, currency, is_locked, generated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,false,$19)
    ON CONFLICT (employee_id, year, month) DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      housing_allowance = EXCLUDED.housing_allowance,
      transport_allowance = EXCLUDED.transport_allowance,
      overtime_hours = EXCLUDED.overtime_hours,
      overtime_pay = EXCLUDED.overtime_pay,
      absent_days = EXCLUDED.absent_days,
      absence_deduction = EXCLUDED.absence_deduction,
      total_additions = EXCLUDED.total_additions,
      total_manual_deductions = EXCLUDED.total_manual_deductions,
      gross_earnings = EXCLUDED.gross_earnings,
      taxable_earnings = EXCLUDED.taxable_earnings,
      pension_amount = EXCLUDED.pension_amount,
      paye_amount = EXCLUDED.paye_amount,
      net_salary = EXCLUDED.net_salary,
      currency = EXCLUDED.currency,
      generated_at = EXCLUDED.generated_at
    WHERE payroll_records.is_locked = false
    RETURNING id
  `,
		rec.EmployeeID, rec.Year, rec.Month, rec.BaseSalary, rec.HousingAllowance,
		rec.TransportAllowance, rec.OvertimeHours, rec.OvertimePay, rec.AbsentDays,
		rec.AbsenceDeduction, rec.TotalAdditions, rec.TotalManualDeductions,
		rec.GrossEarnings, rec.TaxableEarnings, rec.PensionAmount, rec.PAYEAmount,
		rec.NetSalary, rec.Currency, rec.GeneratedAt,
	).Scan(&rec.ID)
	// A locked row makes the WHERE clause match nothing, so no id comes back.
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordLocked
	}
	return err
}

// Lock transitions one record to locked. Locking is terminal; locking an
// already-locked record reports ErrRecordLocked.
func (s *Store) Lock(ctx context.Context, recordID string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE payroll_records
    SET is_locked = true, locked_at = now()
    WHERE id = $1 AND is_locked = false
    RETURNING`+recordColumns,
		recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing row from an already-locked one.
		if _, getErr := s.GetRecordByID(ctx, recordID); getErr != nil {
			return Record{}, getErr
		}
		return Record{}, ErrRecordLocked
	}
	return rec, err
}

func (s *Store) DeleteRecord(ctx context.Context, recordID string) error {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM payroll_records WHERE id = $1 AND is_locked = false", recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetRecordByID(ctx, recordID); getErr != nil {
			return getErr
		}
		return ErrRecordLocked
	}
	return nil
}

func (s *Store) isPeriodLocked(ctx context.Context, employeeID string, year, month int) (bool, error) {
	var locked bool
	err := s.DB.QueryRow(ctx, `
    SELECT is_locked FROM payroll_records
    WHERE employee_id = $1 AND year = $2 AND month = $3
  `, employeeID, year, month).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return locked, err
}

// RecordJobRun logs a bulk generation or lock run for later inspection.
func (s *Store) RecordJobRun(ctx context.Context, name string, startedAt time.Time, detail string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO job_runs (name, started_at, finished_at, detail)
    VALUES ($1,$2, now(), $3)
  `, name, startedAt, detail)
	return err
}
