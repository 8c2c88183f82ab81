package payroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	cryptoutil "staffhub/internal/platform/crypto"
)

// PayslipGenerator renders locked payroll records to PDF. When an
// encryption service is configured the file is stored encrypted at rest
// and only decrypted on download.
type PayslipGenerator struct {
	Service *Service
	Crypto  *cryptoutil.Service
	Dir     string
}

func NewPayslipGenerator(service *Service, crypto *cryptoutil.Service, dir string) *PayslipGenerator {
	return &PayslipGenerator{Service: service, Crypto: crypto, Dir: dir}
}

// Generate writes the payslip for a stored record and returns the path of
// the file on disk. Only locked records get payslips: the figures on a
// payslip must never drift from a later recomputation.
func (g *PayslipGenerator) Generate(ctx context.Context, recordID string) (string, error) {
	rec, err := g.Service.Store.GetRecordByID(ctx, recordID)
	if err != nil {
		return "", err
	}
	if !rec.IsLocked {
		return "", fmt.Errorf("payslip for %s: %w", recordID, errNotLocked)
	}

	emp, err := g.Service.Core.Get(ctx, rec.EmployeeID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(g.Dir, rec.ID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", emp.FirstName, emp.LastName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", emp.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %04d-%02d", rec.Year, rec.Month))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %.2f %s", rec.BaseSalary, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Allowances: %.2f %s", rec.HousingAllowance+rec.TransportAllowance, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Overtime (%.1f h): %.2f %s", rec.OvertimeHours, rec.OvertimePay, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Absence deduction (%d day(s)): -%.2f %s", rec.AbsentDays, rec.AbsenceDeduction, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Gross earnings: %.2f %s", rec.GrossEarnings, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Pension: -%.2f %s", rec.PensionAmount, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("PAYE: -%.2f %s", rec.PAYEAmount, rec.Currency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Other deductions: -%.2f %s", rec.TotalManualDeductions, rec.Currency))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net salary: %.2f %s", rec.NetSalary, rec.Currency))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}

	if g.Crypto != nil && g.Crypto.Configured() {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		encrypted, err := g.Crypto.Encrypt(data)
		if err != nil {
			return "", err
		}
		encryptedPath := filePath + ".enc"
		if err := os.WriteFile(encryptedPath, encrypted, 0o600); err != nil {
			return "", err
		}
		if err := os.Remove(filePath); err != nil {
			return "", err
		}
		return encryptedPath, nil
	}

	return filePath, nil
}

// Open returns the payslip bytes, decrypting when stored encrypted.
func (g *PayslipGenerator) Open(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".enc" {
		if g.Crypto == nil || !g.Crypto.Configured() {
			return nil, fmt.Errorf("payslip %s is encrypted but no key is configured", filepath.Base(path))
		}
		return g.Crypto.Decrypt(data)
	}
	return data, nil
}
