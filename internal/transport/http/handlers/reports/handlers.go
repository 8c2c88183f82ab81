package reportshandler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/reports"
	"staffhub/internal/transport/http/api"
	"staffhub/internal/transport/http/middleware"
	"staffhub/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/payroll-register.csv", h.handleRegisterCSV)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/payroll-register.xlsx", h.handleRegisterXLSX)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/leave-calendar.csv", h.handleLeaveCalendarCSV)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/job-runs", h.handleJobRuns)
	})
}

func parsePeriod(r *http.Request) (int, int, bool) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 2200 {
			return 0, 0, false
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, false
		}
		month = v
	}
	return year, month, true
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return
	}
	dash, err := h.Service.Dashboard(r.Context(), year, month, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dash, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRegisterCSV(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return
	}
	data, err := h.Service.PayrollRegisterCSV(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export payroll register", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("payroll-%04d-%02d.csv", year, month)))
	_, _ = w.Write(data)
}

func (h *Handler) handleRegisterXLSX(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return
	}
	data, err := h.Service.PayrollRegisterXLSX(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export payroll register", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("payroll-%04d-%02d.xlsx", year, month)))
	_, _ = w.Write(data)
}

func (h *Handler) handleLeaveCalendarCSV(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return
	}
	data, err := h.Service.LeaveCalendarCSV(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export leave calendar", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("leave-calendar-%04d-%02d.csv", year, month)))
	_, _ = w.Write(data)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Service.JobRuns(r.Context(), r.URL.Query().Get("name"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
