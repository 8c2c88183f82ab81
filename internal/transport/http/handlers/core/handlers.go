package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffhub/internal/domain/audit"
	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/core"
	"staffhub/internal/transport/http/api"
	"staffhub/internal/transport/http/middleware"
	"staffhub/internal/transport/http/shared"
)

type Handler struct {
	Store *core.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *core.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/{employeeID}/status", h.handleUpdateStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")
	if status != "" && !core.ValidStatus(status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown employee status", middleware.GetRequestID(r.Context()))
		return
	}

	employees, total, err := h.Store.List(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"items": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeEmployee(w http.ResponseWriter, r *http.Request) (core.Employee, bool) {
	var payload core.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.Employee{}, false
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	if payload.Status != "" && !core.ValidStatus(payload.Status) {
		v.Add("status", "unknown employee status")
	}
	if payload.MonthlySalary != nil && *payload.MonthlySalary < 0 {
		v.Add("monthlySalary", "must not be negative")
	}
	if payload.AnnualLeaveDays != nil && *payload.AnnualLeaveDays < 0 {
		v.Add("annualLeaveDays", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.Employee{}, false
	}
	return payload, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}
	if payload.Status == "" {
		payload.Status = core.StatusActive
	}

	id, err := h.Store.Create(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "employee.create", "employee", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit employee.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	before, err := h.Store.Get(r.Context(), employeeID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}

	payload, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}
	payload.ID = employeeID
	if payload.Status == "" {
		payload.Status = before.Status
	}

	if err := h.Store.Update(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "employee.update", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, payload); err != nil {
		slog.Warn("audit employee.update failed", "err", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || !core.ValidStatus(payload.Status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown employee status", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Store.UpdateStatus(r.Context(), employeeID, payload.Status)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee status", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "employee.status", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit employee.status failed", "err", err)
	}
	api.Success(w, map[string]string{"id": employeeID, "status": payload.Status}, middleware.GetRequestID(r.Context()))
}
