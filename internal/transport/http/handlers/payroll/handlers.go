package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"staffhub/internal/domain/audit"
	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/notifications"
	"staffhub/internal/domain/payroll"
	"staffhub/internal/transport/http/api"
	"staffhub/internal/transport/http/middleware"
	"staffhub/internal/transport/http/shared"
)

type Handler struct {
	Service  *payroll.Service
	Payslips *payroll.PayslipGenerator
	Auth     *auth.Store
	Perms    middleware.PermissionStore
	Notify   *notifications.Service
	Audit    *audit.Service
}

func NewHandler(service *payroll.Service, payslips *payroll.PayslipGenerator, authStore *auth.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Payslips: payslips, Auth: authStore, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/settings", h.handleSaveSettings)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records", h.handleListMonth)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records/{employeeID}", h.handleGetRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Get("/inputs/{employeeID}", h.handleGetInput)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/inputs/{employeeID}", h.handleSaveInput)
		r.With(middleware.RequirePermission(auth.PermPayrollGenerate, h.Perms)).Post("/generate", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermPayrollLock, h.Perms)).Post("/records/{recordID}/lock", h.handleLockRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollLock, h.Perms)).Post("/lock-month", h.handleLockMonth)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records/{recordID}/payslip", h.handlePayslip)
	})
}

func parsePeriod(r *http.Request) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 2200 {
			return 0, 0, fmt.Errorf("invalid year %q", raw)
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", raw)
		}
		month = v
	}
	return year, month, nil
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Store.GetSettings(r.Context())
	if errors.Is(err, payroll.ErrSettingsNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll settings not configured", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load payroll settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload payroll.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	if payload.WorkingDaysPerMonth <= 0 {
		v.Add("workingDaysPerMonth", "must be greater than zero")
	}
	if payload.WorkingHoursPerDay <= 0 {
		v.Add("workingHoursPerDay", "must be greater than zero")
	}
	if payload.OvertimeMultiplier < 1 {
		v.Add("overtimeMultiplier", "must be at least 1")
	}
	if payload.RoundingDecimals < 0 || payload.RoundingDecimals > 6 {
		v.Add("roundingDecimals", "must be between 0 and 6")
	}
	if payload.PAYEEnabled {
		if err := payroll.ValidateBrackets(payload.TaxBrackets); err != nil {
			v.Add("taxBrackets", err.Error())
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Store.SaveSettings(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_save_failed", "failed to save payroll settings", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.settings.update", "payroll_settings", "1", middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit payroll.settings.update failed", "err", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	records, err := h.Service.MonthView(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.RecordFor(r.Context(), chi.URLParam(r, "employeeID"), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to compute payroll record", middleware.GetRequestID(r.Context()))
		return
	}
	if rec == nil {
		api.Fail(w, http.StatusNotFound, "not_payable", payroll.ErrEmployeeNotPaid.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (payroll.Input, bool) {
	var payload payroll.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payload, false
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	if payload.Year < 2000 || payload.Year > 2200 {
		v.Add("year", "must be a plausible year")
	}
	if payload.Month < 1 || payload.Month > 12 {
		v.Add("month", "must be between 1 and 12")
	}
	if payload.ManualOvertimeHours != nil && *payload.ManualOvertimeHours < 0 {
		v.Add("manualOvertimeHours", "must not be negative")
	}
	for i, item := range payload.ManualAdditions {
		if item.Amount < 0 {
			v.Add(fmt.Sprintf("manualAdditions[%d].amount", i), "must not be negative")
		}
	}
	for i, item := range payload.ManualDeductions {
		if item.Amount < 0 {
			v.Add(fmt.Sprintf("manualDeductions[%d].amount", i), "must not be negative")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payload, false
	}
	return payload, true
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Preview(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_preview_failed", "failed to preview payroll", middleware.GetRequestID(r.Context()))
		return
	}
	if rec == nil {
		api.Fail(w, http.StatusNotFound, "not_payable", payroll.ErrEmployeeNotPaid.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetInput(w http.ResponseWriter, r *http.Request) {
	year, month, err := parsePeriod(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	input, err := h.Service.Store.GetInput(r.Context(), chi.URLParam(r, "employeeID"), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "input_get_failed", "failed to load payroll input", middleware.GetRequestID(r.Context()))
		return
	}
	if input == nil {
		input = &payroll.Input{EmployeeID: chi.URLParam(r, "employeeID"), Year: year, Month: month}
	}
	api.Success(w, input, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveInput(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	payload.EmployeeID = chi.URLParam(r, "employeeID")

	rec, err := h.Service.SaveInput(r.Context(), payload)
	if errors.Is(err, payroll.ErrRecordLocked) {
		api.Fail(w, http.StatusConflict, "record_locked", "payroll record is locked", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "input_save_failed", "failed to save payroll input", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.input.save", "payroll_input",
		fmt.Sprintf("%s-%04d-%02d", payload.EmployeeID, payload.Year, payload.Month),
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit payroll.input.save failed", "err", err)
	}
	api.Success(w, map[string]any{"input": payload, "record": rec}, middleware.GetRequestID(r.Context()))
}

type periodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func decodePeriod(w http.ResponseWriter, r *http.Request) (periodRequest, bool) {
	var payload periodRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payload, false
	}
	if payload.Year < 2000 || payload.Year > 2200 || payload.Month < 1 || payload.Month > 12 {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return payload, false
	}
	return payload, true
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodePeriod(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Generate(r.Context(), payload.Year, payload.Month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_generate_failed", "failed to generate payroll", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.generate", "payroll_run",
		fmt.Sprintf("%04d-%02d", payload.Year, payload.Month),
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, summary); err != nil {
		slog.Warn("audit payroll.generate failed", "err", err)
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLockRecord(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	rec, err := h.Service.LockRecord(r.Context(), recordID)
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, payroll.ErrRecordLocked):
		api.Fail(w, http.StatusConflict, "record_locked", "payroll record is already locked", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_lock_failed", "failed to lock payroll record", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.record.lock", "payroll_record", rec.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, rec); err != nil {
		slog.Warn("audit payroll.record.lock failed", "err", err)
	}
	h.notifyEmployee(r, rec.EmployeeID, notifications.TypePayrollLocked, "Payroll finalized",
		fmt.Sprintf("Your payroll for %04d-%02d has been finalized.", rec.Year, rec.Month))
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLockMonth(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodePeriod(w, r)
	if !ok {
		return
	}

	outcomes, err := h.Service.LockMonth(r.Context(), payload.Year, payload.Month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_lock_failed", "failed to lock payroll month", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.month.lock", "payroll_run",
		fmt.Sprintf("%04d-%02d", payload.Year, payload.Month),
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, outcomes); err != nil {
		slog.Warn("audit payroll.month.lock failed", "err", err)
	}
	api.Success(w, outcomes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	path, err := h.Payslips.Generate(r.Context(), recordID)
	if errors.Is(err, payroll.ErrRecordNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusUnprocessableEntity, "payslip_failed", "payslips are only available for locked records", middleware.GetRequestID(r.Context()))
		return
	}

	data, err := h.Payslips.Open(path)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to read payslip", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(recordID)+".pdf"))
	_, _ = w.Write(data)
}

func (h *Handler) notifyEmployee(r *http.Request, employeeID, ntype, title, body string) {
	userID, err := h.Auth.UserIDByEmployeeID(r.Context(), employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := h.Notify.Notify(r.Context(), userID, ntype, title, body); err != nil {
		slog.Warn("notify failed", "type", ntype, "err", err)
	}
}
