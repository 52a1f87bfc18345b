package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/kainbear/interface-service/internal/model"
)

// mockAggregator は関数フィールドで振る舞いを差し替える。未設定の一覧は空を返す。
type mockAggregator struct {
	listEmployeesFn     func(ctx context.Context) ([]model.Employee, error)
	listSubdivisionsFn  func(ctx context.Context) ([]model.Subdivision, error)
	listTasksFn         func(ctx context.Context) ([]model.Task, error)
	createSubdivisionFn func(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error)
	createTaskFn        func(ctx context.Context, in model.TaskInput) (*model.Task, error)
	createVacationFn    func(ctx context.Context, in model.VacationInput) (*model.Vacation, error)
}

func (m *mockAggregator) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	if m.listEmployeesFn == nil {
		return []model.Employee{}, nil
	}
	return m.listEmployeesFn(ctx)
}

func (m *mockAggregator) ListVacations(context.Context) ([]model.Vacation, error) {
	return []model.Vacation{}, nil
}

func (m *mockAggregator) ListSubdivisions(ctx context.Context) ([]model.Subdivision, error) {
	if m.listSubdivisionsFn == nil {
		return []model.Subdivision{}, nil
	}
	return m.listSubdivisionsFn(ctx)
}

func (m *mockAggregator) ListProjects(context.Context) ([]model.Project, error) {
	return []model.Project{}, nil
}

func (m *mockAggregator) ListTasks(ctx context.Context) ([]model.Task, error) {
	if m.listTasksFn == nil {
		return []model.Task{}, nil
	}
	return m.listTasksFn(ctx)
}

func (m *mockAggregator) CreateEmployee(_ context.Context, in model.EmployeeInput) (*model.Employee, error) {
	return &model.Employee{ID: 1, LastName: in.LastName, Email: in.Email, IsSupervisor: in.IsSupervisor, IsVacation: in.IsVacation}, nil
}

func (m *mockAggregator) CreateVacation(ctx context.Context, in model.VacationInput) (*model.Vacation, error) {
	return m.createVacationFn(ctx, in)
}

func (m *mockAggregator) CreateSubdivision(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error) {
	return m.createSubdivisionFn(ctx, in)
}

func (m *mockAggregator) CreateProject(_ context.Context, in model.ProjectInput) (*model.Project, error) {
	return &model.Project{ID: 1, Name: in.Name, Type: in.Type}, nil
}

func (m *mockAggregator) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	return m.createTaskFn(ctx, in)
}

func execute(t *testing.T, agg Aggregator, query string) *graphql.Result {
	t.Helper()
	schema, err := NewSchema(agg)
	if err != nil {
		t.Fatalf("NewSchema がエラーを返した: %v", err)
	}
	return graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: context.Background()})
}

func toJSONMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchema_AllSubdivisions_AlwaysHasMemberList(t *testing.T) {
	agg := &mockAggregator{
		listSubdivisionsFn: func(context.Context) ([]model.Subdivision, error) {
			return []model.Subdivision{{ID: 1, Name: "dev", EmployeeIDs: []int{}}, {ID: 2, Name: "ops", EmployeeIDs: []int{3}}}, nil
		},
	}

	result := execute(t, agg, `{ allSubdivisions { id name employeeIds } }`)
	if result.HasErrors() {
		t.Fatalf("errors: %v", result.Errors)
	}

	data := toJSONMap(t, result)["data"].(map[string]interface{})
	subs := data["allSubdivisions"].([]interface{})
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
	for _, s := range subs {
		ids, ok := s.(map[string]interface{})["employeeIds"].([]interface{})
		if !ok {
			t.Errorf("employeeIds がリストでない: %v", s)
		}
		_ = ids
	}
}

func TestSchema_AllTask_UpstreamErrorCarriesStatus(t *testing.T) {
	agg := &mockAggregator{
		listTasksFn: func(context.Context) ([]model.Task, error) {
			return nil, &model.UpstreamError{Service: "tasks", Op: "fetch tasks", Status: http.StatusServiceUnavailable, Detail: "maintenance"}
		},
	}

	result := execute(t, agg, `{ allTask { id } }`)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}

	ext := result.Errors[0].Extensions
	if ext["code"] != model.ErrCodeUpstreamError {
		t.Errorf("extensions.code = %v, want %s", ext["code"], model.ErrCodeUpstreamError)
	}
	if ext["status"] != http.StatusServiceUnavailable {
		t.Errorf("extensions.status = %v, want 503", ext["status"])
	}
	if !strings.Contains(result.Errors[0].Message, "maintenance") {
		t.Errorf("message = %q, want backend detail", result.Errors[0].Message)
	}

	data := toJSONMap(t, result)["data"].(map[string]interface{})
	if data["allTask"] != nil {
		t.Errorf("失敗時に部分的な一覧が返された: %v", data["allTask"])
	}
}

func TestSchema_AllSubdivisions_ContractViolation(t *testing.T) {
	agg := &mockAggregator{
		listSubdivisionsFn: func(context.Context) ([]model.Subdivision, error) {
			return nil, model.NewContractViolationError("identity", "'employee_ids' key is missing in subdivision 2")
		},
	}

	result := execute(t, agg, `{ allSubdivisions { id employeeIds } }`)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}
	if result.Errors[0].Extensions["code"] != model.ErrCodeContractViolation {
		t.Errorf("extensions.code = %v", result.Errors[0].Extensions["code"])
	}
}

func TestSchema_CreateTask_MapsInput(t *testing.T) {
	var got model.TaskInput
	agg := &mockAggregator{
		createTaskFn: func(_ context.Context, in model.TaskInput) (*model.Task, error) {
			got = in
			pid := in.ProjectID
			return &model.Task{ID: 10, Title: in.Title, DueDate: in.DueDate, ProjectID: &pid, Type: in.Type}, nil
		},
	}

	result := execute(t, agg, `mutation {
		createTask(input: {title: "report", description: "q1", dueDate: "2025-03-01T10:00:00Z", projectId: 3, type: "at work"}) {
			id title dueDate projectId type userId
		}
	}`)
	if result.HasErrors() {
		t.Fatalf("errors: %v", result.Errors)
	}

	if !got.DueDate.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) || got.ProjectID != 3 || got.Type != model.TaskStatusAtWork {
		t.Errorf("input = %+v", got)
	}
	if got.UserID != nil {
		t.Errorf("未指定の userId が設定された: %v", *got.UserID)
	}

	task := toJSONMap(t, result)["data"].(map[string]interface{})["createTask"].(map[string]interface{})
	if task["dueDate"] != "2025-03-01T10:00:00Z" || task["userId"] != nil {
		t.Errorf("task = %v", task)
	}
}

func TestSchema_CreateTask_UnknownProject(t *testing.T) {
	agg := &mockAggregator{
		createTaskFn: func(context.Context, model.TaskInput) (*model.Task, error) {
			return nil, &model.UpstreamError{Service: "tasks", Op: "create task", Status: http.StatusNotFound, Detail: "Project not found"}
		},
	}

	result := execute(t, agg, `mutation {
		createTask(input: {title: "t", description: "d", dueDate: "2025-03-01T10:00:00", projectId: 999, type: "at work"}) { id }
	}`)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}
	ext := result.Errors[0].Extensions
	if ext["code"] != model.ErrCodeNotFound || ext["status"] != http.StatusNotFound || ext["detail"] != "Project not found" {
		t.Errorf("extensions = %v", ext)
	}
}

func TestSchema_CreateTask_BadDueDate(t *testing.T) {
	agg := &mockAggregator{
		createTaskFn: func(context.Context, model.TaskInput) (*model.Task, error) {
			t.Fatal("不正な日付でバックエンドが呼ばれた")
			return nil, nil
		},
	}

	result := execute(t, agg, `mutation {
		createTask(input: {title: "t", description: "d", dueDate: "next week", projectId: 1, type: "at work"}) { id }
	}`)
	if len(result.Errors) != 1 || result.Errors[0].Extensions["code"] != model.ErrCodeValidationFailed {
		t.Errorf("errors = %v, want VALIDATION_FAILED", result.Errors)
	}
}

func TestSchema_CreateVacation_ParsesDates(t *testing.T) {
	var got model.VacationInput
	agg := &mockAggregator{
		createVacationFn: func(_ context.Context, in model.VacationInput) (*model.Vacation, error) {
			got = in
			return &model.Vacation{ID: 4, EmployeeID: &in.EmployeeID, Type: in.Type, StartDate: *in.StartDate}, nil
		},
	}

	result := execute(t, agg, `mutation {
		createVacation(input: {employeeId: 2, type: "vacation", startDate: "2025-07-01"}) { id startDate endDate }
	}`)
	if result.HasErrors() {
		t.Fatalf("errors: %v", result.Errors)
	}
	if got.StartDate == nil || got.StartDate.Wire() != "2025-07-01" || got.EndDate != nil {
		t.Errorf("input = %+v", got)
	}
}

func newTestHandler(t *testing.T, agg Aggregator) *Handler {
	t.Helper()
	schema, err := NewSchema(agg)
	if err != nil {
		t.Fatalf("NewSchema がエラーを返した: %v", err)
	}
	var buf bytes.Buffer
	return NewHandler(schema, slog.New(slog.NewJSONHandler(&buf, nil)))
}

func TestHandler_Post(t *testing.T) {
	h := newTestHandler(t, &mockAggregator{
		listEmployeesFn: func(context.Context) ([]model.Employee, error) {
			return []model.Employee{{ID: 1, Login: "ivanov"}}, nil
		},
	})

	body := `{"query":"query Q { allEmployees { id login } }","operationName":"Q"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"login":"ivanov"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandler_GetQuery(t *testing.T) {
	h := newTestHandler(t, &mockAggregator{})

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape("{ allProjects { id } }"), nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"allProjects":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandler_GetMutationRejected(t *testing.T) {
	h := newTestHandler(t, &mockAggregator{})

	q := `mutation { createProject(input: {name: "x", type: "at work"}) { id } }`
	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(q), nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	h := newTestHandler(t, &mockAggregator{})

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandler_MissingQuery(t *testing.T) {
	h := newTestHandler(t, &mockAggregator{})

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"variables":{}}`))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
