package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"staffhub/internal/domain/audit"
	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/leave"
	"staffhub/internal/domain/notifications"
	"staffhub/internal/transport/http/api"
	"staffhub/internal/transport/http/middleware"
	"staffhub/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Auth    *auth.Store
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, authStore *auth.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Auth: authStore, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/policies", h.handleListPolicies)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/holidays", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances/{employeeID}", h.handleBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Post("/validate", h.handleValidate)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
	})
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Service.Policies(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_policies_failed", "failed to list leave policies", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, policies, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.ListHolidays(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holidays_failed", "failed to list holidays", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, holidays, middleware.GetRequestID(r.Context()))
}

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	date, dateOK := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) || !dateOK {
		return
	}

	id, err := h.Service.CreateHoliday(r.Context(), date, payload.Name)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_create_failed", "failed to create holiday", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "holiday.create", "holiday", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit holiday.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	holidayID := chi.URLParam(r, "holidayID")
	if err := h.Service.DeleteHoliday(r.Context(), holidayID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_delete_failed", "failed to delete holiday", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "holiday.delete", "holiday", holidayID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit holiday.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be numeric", middleware.GetRequestID(r.Context()))
			return
		}
		year = v
	}

	balances, err := h.Service.BalancesFor(r.Context(), employeeID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to compute balances", middleware.GetRequestID(r.Context()))
		return
	}
	if balances == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

type requestPayload struct {
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason"`
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (requestPayload, time.Time, time.Time, bool) {
	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payload, time.Time{}, time.Time{}, false
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Enum("type", payload.Type, leave.Types, "unknown leave type")
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) || !startOK || !endOK {
		return payload, time.Time{}, time.Time{}, false
	}
	return payload, start, end, true
}

// handleValidate dry-runs a proposed request. A failed validation is a 200
// with isValid=false so the caller can show the message inline.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	payload, start, end, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	validation, err := h.Service.Validate(r.Context(), payload.EmployeeID, payload.Type, start, end)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "validate_failed", "failed to validate leave request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, validation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := leave.RequestFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     r.URL.Query().Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	requests, total, err := h.Service.ListRequests(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"items": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if errors.Is(err, leave.ErrRequestNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_get_failed", "failed to load leave request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, start, end, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	req, validation, err := h.Service.CreateRequest(r.Context(), payload.EmployeeID, payload.Type, payload.Reason, start, end)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_create_failed", "failed to create leave request", middleware.GetRequestID(r.Context()))
		return
	}
	if !validation.Valid {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "leave_invalid", validation.Message,
			map[string]any{"validation": validation}, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.create", "leave_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.create failed", "err", err)
	}
	h.notifyEmployee(r, req.EmployeeID, notifications.TypeLeaveSubmitted, "Leave request submitted",
		fmt.Sprintf("Your %s leave request for %d working day(s) is pending approval.", req.Type, req.Days))
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, validation, err := h.Service.Approve(r.Context(), requestID, user.UserID)
	switch {
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not pending", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "leave_invalid", validation.Message,
			map[string]any{"validation": validation}, middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "leave_approve_failed", "failed to approve leave request", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.approve", "leave_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.approve failed", "err", err)
	}
	h.notifyEmployee(r, req.EmployeeID, notifications.TypeLeaveApproved, "Leave request approved",
		fmt.Sprintf("Your %s leave request from %s was approved.", req.Type, req.StartDate.Format("2006-01-02")))
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, err := h.Service.Reject(r.Context(), requestID, user.UserID)
	switch {
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not pending", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "leave_reject_failed", "failed to reject leave request", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.reject", "leave_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.reject failed", "err", err)
	}
	h.notifyEmployee(r, req.EmployeeID, notifications.TypeLeaveRejected, "Leave request rejected",
		fmt.Sprintf("Your %s leave request from %s was rejected.", req.Type, req.StartDate.Format("2006-01-02")))
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

// notifyEmployee resolves the login linked to an employee and notifies it.
// Employees without a login get no notification; that is not an error.
func (h *Handler) notifyEmployee(r *http.Request, employeeID, ntype, title, body string) {
	userID, err := h.Auth.UserIDByEmployeeID(r.Context(), employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := h.Notify.Notify(r.Context(), userID, ntype, title, body); err != nil {
		slog.Warn("notify failed", "type", ntype, "err", err)
	}
}
