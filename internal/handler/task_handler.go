package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kainbear/interface-service/internal/model"
)

// TaskService は /task-service 配下の操作を提供するサービスインターフェース。
type TaskService interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, id int, in model.ProjectInput) (json.RawMessage, error)
	DeleteProject(ctx context.Context, id int) (json.RawMessage, error)

	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error)
	SearchTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	UpdateTask(ctx context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error)
	DeleteTask(ctx context.Context, id int) (json.RawMessage, error)
}

// TaskHandler はプロジェクト・タスクのHTTPハンドラー。
type TaskHandler struct {
	responder
	service TaskService
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{responder: responder{logger: logger}, service: service}
}

// ListProjects は GET /task-service/project/read_all
func (h *TaskHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	h.respond(w, r, projects, err)
}

// CreateProject は POST /task-service/project/add
func (h *TaskHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.service.CreateProject(r.Context(), in)
	h.respond(w, r, project, err)
}

// UpdateProject は PUT /task-service/project/update?id=
func (h *TaskHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in model.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.UpdateProject(r.Context(), id, in)
	h.respondRaw(w, r, raw, err)
}

// DeleteProject は DELETE /task-service/project/{id}
func (h *TaskHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.DeleteProject(r.Context(), id)
	h.respondRaw(w, r, raw, err)
}

// ListTasks は GET /task-service/task/read_all
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	h.respond(w, r, tasks, err)
}

// CreateTask は POST /task-service/task/add
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in model.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	task, err := h.service.CreateTask(r.Context(), in)
	h.respond(w, r, task, err)
}

// SearchTasks は GET /task-service/task/search
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := model.TaskQuery{
		Title:       r.URL.Query().Get("title"),
		Description: r.URL.Query().Get("description"),
		Project:     r.URL.Query().Get("project"),
	}
	var err error
	if q.ID, err = queryIntPtr(r, "id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.UserID, err = queryIntPtr(r, "user_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.ProjectID, err = queryIntPtr(r, "project_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	tasks, err := h.service.SearchTasks(r.Context(), q)
	h.respond(w, r, tasks, err)
}

// UpdateTask は PUT /task-service/task/update?id=
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in model.TaskUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.UpdateTask(r.Context(), id, in)
	h.respondRaw(w, r, raw, err)
}

// DeleteTask は DELETE /task-service/task/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := h.service.DeleteTask(r.Context(), id)
	h.respondRaw(w, r, raw, err)
}
