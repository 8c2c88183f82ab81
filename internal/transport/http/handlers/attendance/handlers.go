package attendancehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/auth"
	"staffhub/internal/transport/http/api"
	"staffhub/internal/transport/http/middleware"
	"staffhub/internal/transport/http/shared"
)

type Handler struct {
	Store *attendance.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *attendance.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/month", h.handleListMonth)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/day", h.handleListDay)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/mark", h.handleMark)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Delete("/mark", h.handleClear)
	})
}

// parsePeriod reads year and month query parameters, defaulting to the
// current period.
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

func (h *Handler) handleListMonth(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", middleware.GetRequestID(r.Context()))
		return
	}
	year, month, ok := parsePeriod(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "year and month must form a valid period", middleware.GetRequestID(r.Context()))
		return
	}

	records, err := h.Store.ListMonth(r.Context(), employeeID, year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDay(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	date, ok := v.Date("date", r.URL.Query().Get("date"))
	if !ok {
		v.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}

	records, err := h.Store.ListDay(r.Context(), date)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

type markRequest struct {
	EmployeeID        string   `json:"employeeId"`
	Date              string   `json:"date"`
	Status            string   `json:"status"`
	CheckInTime       *string  `json:"checkInTime,omitempty"`
	CheckOutTime      *string  `json:"checkOutTime,omitempty"`
	OvertimeHours     *float64 `json:"overtimeHours,omitempty"`
	LunchBreakMinutes *int     `json:"lunchBreakMinutes,omitempty"`
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	var payload markRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	if !attendance.ValidStatus(payload.Status) {
		v.Add("status", "unknown attendance status")
	}
	if payload.OvertimeHours != nil && *payload.OvertimeHours < 0 {
		v.Add("overtimeHours", "must not be negative")
	}
	date, dateOK := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) || !dateOK {
		return
	}

	rec := attendance.Record{
		EmployeeID:        payload.EmployeeID,
		Date:              date,
		Status:            payload.Status,
		CheckInTime:       payload.CheckInTime,
		CheckOutTime:      payload.CheckOutTime,
		OvertimeHours:     payload.OvertimeHours,
		LunchBreakMinutes: payload.LunchBreakMinutes,
	}
	id, err := h.Store.Mark(r.Context(), rec)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_mark_failed", "failed to record attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employeeId")
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "employeeId is required")
	date, dateOK := v.Date("date", r.URL.Query().Get("date"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) || !dateOK {
		return
	}

	err := h.Store.Clear(r.Context(), employeeID, date)
	if errors.Is(err, attendance.ErrRecordNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "attendance record not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_clear_failed", "failed to clear attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "cleared"}, middleware.GetRequestID(r.Context()))
}
