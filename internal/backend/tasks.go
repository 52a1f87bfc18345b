package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/model"
)

// TaskClient はタスク・プロジェクトサービスのクライアント。
type TaskClient struct {
	caller
}

// NewTaskClient はTaskClientの新しいインスタンスを生成する。
func NewTaskClient(baseURL string, httpClient *http.Client, logger *slog.Logger, mc metrics.MetricsCollector) *TaskClient {
	return &TaskClient{caller: newCaller(ServiceTasks, baseURL, httpClient, logger, mc)}
}

// ListProjects は全プロジェクトを返す。
func (c *TaskClient) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects := []model.Project{}
	if err := c.do(ctx, call{op: "fetch projects", method: http.MethodGet, path: "/project/read_all"}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject はプロジェクトを作成する。
func (c *TaskClient) CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	var p model.Project
	err := c.do(ctx, call{
		op:     "create project",
		method: http.MethodPost,
		path:   "/project/add",
		query:  projectParams(in),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject はプロジェクトを更新する。
func (c *TaskClient) UpdateProject(ctx context.Context, id int, in model.ProjectInput) (json.RawMessage, error) {
	q := projectParams(in)
	q.Set("id", strconv.Itoa(id))
	return c.raw(ctx, call{op: "update project", method: http.MethodPut, path: "/project/update", query: q})
}

// DeleteProject はプロジェクトを削除する。
func (c *TaskClient) DeleteProject(ctx context.Context, id int) (json.RawMessage, error) {
	return c.raw(ctx, call{op: "delete project", method: http.MethodDelete, path: "/project/" + strconv.Itoa(id)})
}

// ListTasks は全タスクを返す。
func (c *TaskClient) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := c.do(ctx, call{op: "fetch tasks", method: http.MethodGet, path: "/task/read_all"}, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListDueTasks は期限がbefore以前のタスクを返す。
func (c *TaskClient) ListDueTasks(ctx context.Context, before time.Time) ([]model.Task, error) {
	tasks := []model.Task{}
	err := c.do(ctx, call{
		op:     "fetch due tasks",
		method: http.MethodGet,
		path:   "/task/read_all",
		query:  url.Values{"due_date_lte": {model.NewTimestamp(before).Wire()}},
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask はタスクを作成する。プロジェクトの存在確認はバックエンドに委ねる。
func (c *TaskClient) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	var t model.Task
	err := c.do(ctx, call{
		op:     "create task",
		method: http.MethodPost,
		path:   "/task/add",
		query:  taskParams(in),
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SearchTasks は条件に一致するタスクを返す。
func (c *TaskClient) SearchTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	tasks := []model.Task{}
	err := c.do(ctx, call{
		op:     "search tasks",
		method: http.MethodGet,
		path:   "/task/search",
		query:  taskQueryParams(q),
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask はタスクを更新する。
func (c *TaskClient) UpdateTask(ctx context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "update task",
		method: http.MethodPut,
		path:   "/task/update",
		query:  taskUpdateParams(id, in),
	})
}

// DeleteTask はタスクを削除する。
func (c *TaskClient) DeleteTask(ctx context.Context, id int) (json.RawMessage, error) {
	return c.raw(ctx, call{op: "delete task", method: http.MethodDelete, path: "/task/" + strconv.Itoa(id)})
}
