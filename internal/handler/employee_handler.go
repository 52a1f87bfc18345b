package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kainbear/interface-service/internal/model"
)

// EmployeeService は /employee-service 配下の操作を提供するサービスインターフェース。
type EmployeeService interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id int) (*model.Employee, error)
	CreateEmployee(ctx context.Context, in model.EmployeeInput) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, id int, in model.EmployeeUpdateInput) (json.RawMessage, error)
	DeleteEmployee(ctx context.Context, id int) (json.RawMessage, error)

	ListSubdivisions(ctx context.Context) ([]model.Subdivision, error)
	GetSubdivision(ctx context.Context, id int) (*model.Subdivision, error)
	CreateSubdivision(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error)
	RenameSubdivision(ctx context.Context, id int, name string) (json.RawMessage, error)
	AssignLeader(ctx context.Context, subdivisionID, leaderID int) (json.RawMessage, error)
	AssignEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error)
	RemoveEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error)
	DeleteSubdivision(ctx context.Context, id int) (json.RawMessage, error)

	ListVacations(ctx context.Context) ([]model.Vacation, error)
	SearchVacations(ctx context.Context, q model.VacationQuery) (json.RawMessage, error)
	CreateVacation(ctx context.Context, in model.VacationInput) (*model.Vacation, error)
	UpdateVacation(ctx context.Context, id int, in model.VacationUpdateInput) (json.RawMessage, error)
	DeleteVacation(ctx context.Context, id int) (json.RawMessage, error)
}

// EmployeeHandler は従業員・部署・休暇のHTTPハンドラー。
type EmployeeHandler struct {
	responder
	service EmployeeService
}

// NewEmployeeHandler はEmployeeHandlerを生成する。
func NewEmployeeHandler(service EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{responder: responder{logger: logger}, service: service}
}

// ListEmployees は GET /employee-service/employees
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	h.respond(w, r, employees, err)
}

// GetEmployee は GET /employee-service/employee/{id}
func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, model.NewInvalidRequestError("Invalid user ID"))
		return
	}
	employee, err := h.service.GetEmployee(r.Context(), id)
	h.respond(w, r, employee, err)
}

// CreateEmployee は POST /employee-service/employee/add
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in model.EmployeeInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	employee, err := h.service.CreateEmployee(r.Context(), in)
	h.respond(w, r, employee, err)
}

// UpdateEmployee は PUT /employee-service/employee/update?id=
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in model.EmployeeUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.UpdateEmployee(r.Context(), id, in)
	h.respondRaw(w, r, raw, err)
}

// DeleteEmployee は DELETE /employee-service/employee/{id}
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.DeleteEmployee(r.Context(), id)
	h.respondRaw(w, r, raw, err)
}

// ListSubdivisions は GET /employee-service/subdivision/get_all
func (h *EmployeeHandler) ListSubdivisions(w http.ResponseWriter, r *http.Request) {
	subdivisions, err := h.service.ListSubdivisions(r.Context())
	h.respond(w, r, subdivisions, err)
}

// GetSubdivision は GET /employee-service/subdivision/{id}
func (h *EmployeeHandler) GetSubdivision(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	subdivision, err := h.service.GetSubdivision(r.Context(), id)
	h.respond(w, r, subdivision, err)
}

// CreateSubdivision は POST /employee-service/subdivision/add
func (h *EmployeeHandler) CreateSubdivision(w http.ResponseWriter, r *http.Request) {
	var in model.SubdivisionInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	subdivision, err := h.service.CreateSubdivision(r.Context(), in)
	h.respond(w, r, subdivision, err)
}

// RenameSubdivision は PUT /employee-service/subdivision/update/{id}?name=
func (h *EmployeeHandler) RenameSubdivision(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.RenameSubdivision(r.Context(), id, r.URL.Query().Get("name"))
	h.respondRaw(w, r, raw, err)
}

// AssignLeader は PUT /employee-service/subdivision/{id}/assign_leader/{leader_id}
func (h *EmployeeHandler) AssignLeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	leaderID, err := pathInt(r, "leader_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.AssignLeader(r.Context(), id, leaderID)
	h.respondRaw(w, r, raw, err)
}

// AssignEmployee は PUT /employee-service/subdivision/assign_employee?subdivision_id=&employee_id=
func (h *EmployeeHandler) AssignEmployee(w http.ResponseWriter, r *http.Request) {
	subdivisionID, err := queryInt(r, "subdivision_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	employeeID, err := queryInt(r, "employee_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.AssignEmployee(r.Context(), subdivisionID, employeeID)
	h.respondRaw(w, r, raw, err)
}

// RemoveEmployee は DELETE /employee-service/subdivision/{id}/employee/{employee_id}
func (h *EmployeeHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	employeeID, err := pathInt(r, "employee_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.RemoveEmployee(r.Context(), id, employeeID)
	h.respondRaw(w, r, raw, err)
}

// DeleteSubdivision は DELETE /employee-service/subdivision/{id}
func (h *EmployeeHandler) DeleteSubdivision(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.DeleteSubdivision(r.Context(), id)
	h.respondRaw(w, r, raw, err)
}

// ListVacations は GET /employee-service/vacation/get_all
func (h *EmployeeHandler) ListVacations(w http.ResponseWriter, r *http.Request) {
	vacations, err := h.service.ListVacations(r.Context())
	h.respond(w, r, vacations, err)
}

// SearchVacations は GET /employee-service/vacation/search?employee_id=&type=
func (h *EmployeeHandler) SearchVacations(w http.ResponseWriter, r *http.Request) {
	employeeID, err := queryIntPtr(r, "employee_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.SearchVacations(r.Context(), model.VacationQuery{
		EmployeeID: employeeID,
		Type:       model.VacationType(r.URL.Query().Get("type")),
	})
	h.respondRaw(w, r, raw, err)
}

// CreateVacation は POST /employee-service/vacation/add
func (h *EmployeeHandler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var in model.VacationInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	vacation, err := h.service.CreateVacation(r.Context(), in)
	h.respond(w, r, vacation, err)
}

// UpdateVacation は PUT /employee-service/vacation/update?id=
func (h *EmployeeHandler) UpdateVacation(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in model.VacationUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.UpdateVacation(r.Context(), id, in)
	h.respondRaw(w, r, raw, err)
}

// DeleteVacation は DELETE /employee-service/vacation/{id}
func (h *EmployeeHandler) DeleteVacation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.DeleteVacation(r.Context(), id)
	h.respondRaw(w, r, raw, err)
}
