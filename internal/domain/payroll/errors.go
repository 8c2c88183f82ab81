package payroll

import "errors"

var (
	ErrRecordNotFound   = errors.New("payroll record not found")
	ErrRecordLocked     = errors.New("payroll record is locked")
	ErrSettingsNotFound = errors.New("payroll settings not configured")
	ErrInvalidBrackets  = errors.New("tax brackets must be ascending, non-overlapping, with one open-ended bracket")
	ErrEmployeeNotPaid  = errors.New("employee has no payable salary for the period")

	errNotLocked = errors.New("record is not locked")
)
