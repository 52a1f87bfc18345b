package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kainbear/interface-service/internal/gateway"
	"github.com/kainbear/interface-service/internal/model"
)

// --- モック定義 ---

const validToken = "valid-token"

type mockAuthenticator struct{}

func (mockAuthenticator) Authenticate(_ context.Context, credential string) (*model.Employee, error) {
	if credential != validToken {
		return nil, model.NewUnauthenticatedError(errors.New("invalid token"))
	}
	return &model.Employee{ID: 7, Login: "ivanov", Email: "ivanov@example.com"}, nil
}

// mockGateway は未設定の操作を呼ぶとpanicする。テストで使う操作のみ関数を設定する。
type mockGateway struct {
	EmployeeService
	TaskService

	registerFn         func(ctx context.Context, in model.EmployeeInput) (*model.Token, error)
	loginFn            func(ctx context.Context, username, password string) (*model.Token, error)
	listSubdivisionsFn func(ctx context.Context) ([]model.Subdivision, error)
	createTaskFn       func(ctx context.Context, in model.TaskInput) (*model.Task, error)
	updateTaskFn       func(ctx context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error)
	searchTasksFn      func(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	assignEmployeeFn   func(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error)
}

func (m *mockGateway) Register(ctx context.Context, in model.EmployeeInput) (*model.Token, error) {
	return m.registerFn(ctx, in)
}

func (m *mockGateway) Login(ctx context.Context, username, password string) (*model.Token, error) {
	return m.loginFn(ctx, username, password)
}

func (m *mockGateway) ListSubdivisions(ctx context.Context) ([]model.Subdivision, error) {
	return m.listSubdivisionsFn(ctx)
}

func (m *mockGateway) AssignEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
	return m.assignEmployeeFn(ctx, subdivisionID, employeeID)
}

func (m *mockGateway) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	return m.createTaskFn(ctx, in)
}

func (m *mockGateway) SearchTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	return m.searchTasksFn(ctx, q)
}

func (m *mockGateway) UpdateTask(ctx context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error) {
	return m.updateTaskFn(ctx, id, in)
}

type countingTrigger struct {
	calls atomic.Int32
}

func (c *countingTrigger) Trigger() { c.calls.Add(1) }

// --- ヘルパー ---

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestRouter(t *testing.T, gw *mockGateway, notifier NotificationTrigger) http.Handler {
	t.Helper()
	var buf bytes.Buffer
	if notifier == nil {
		notifier = &countingTrigger{}
	}
	return NewRouter(&RouterDeps{
		Authenticator: mockAuthenticator{},
		Logger:        newTestLogger(&buf),
		Accounts:      gw,
		Notifier:      notifier,
		Employees:     gw,
		Tasks:         gw,
		GraphQL: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{}}`))
		}),
	})
}

func doRequest(h http.Handler, method, target string, body string, authorized bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, target, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func parseErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

// --- テスト ---

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/authentication/users/me"},
		{http.MethodPost, "/authentication/notify_due_tasks"},
		{http.MethodGet, "/employee-service/employees"},
		{http.MethodGet, "/employee-service/employee/1"},
		{http.MethodPost, "/employee-service/employee/add"},
		{http.MethodPut, "/employee-service/employee/update?id=1"},
		{http.MethodDelete, "/employee-service/employee/1"},
		{http.MethodGet, "/employee-service/subdivision/get_all"},
		{http.MethodGet, "/employee-service/subdivision/1"},
		{http.MethodPost, "/employee-service/subdivision/add"},
		{http.MethodPut, "/employee-service/subdivision/update/1?name=x"},
		{http.MethodPut, "/employee-service/subdivision/1/assign_leader/2"},
		{http.MethodPut, "/employee-service/subdivision/assign_employee?subdivision_id=1&employee_id=2"},
		{http.MethodDelete, "/employee-service/subdivision/1/employee/2"},
		{http.MethodDelete, "/employee-service/subdivision/1"},
		{http.MethodGet, "/employee-service/vacation/get_all"},
		{http.MethodGet, "/employee-service/vacation/search?type=vacation"},
		{http.MethodPost, "/employee-service/vacation/add"},
		{http.MethodPut, "/employee-service/vacation/update?id=1"},
		{http.MethodDelete, "/employee-service/vacation/1"},
		{http.MethodGet, "/task-service/project/read_all"},
		{http.MethodPost, "/task-service/project/add"},
		{http.MethodPut, "/task-service/project/update?id=1"},
		{http.MethodDelete, "/task-service/project/1"},
		{http.MethodGet, "/task-service/task/read_all"},
		{http.MethodPost, "/task-service/task/add"},
		{http.MethodGet, "/task-service/task/search?title=x"},
		{http.MethodPut, "/task-service/task/update?id=1"},
		{http.MethodDelete, "/task-service/task/1"},
		{http.MethodPost, "/graphql"},
		{http.MethodGet, "/graphql?query=%7BallTask%7Bid%7D%7D"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := doRequest(router, rt.method, rt.path, "", false)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("WWW-Authenticate = %q", w.Header().Get("WWW-Authenticate"))
			}
			if body := parseErrorBody(t, w); body["code"] != model.ErrCodeUnauthenticated {
				t.Errorf("code = %v", body["code"])
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	w := doRequest(router, http.MethodGet, "/health", "", false)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID が付与されていない")
	}
}

func TestRouter_MetricsDisabledWhenNil(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	w := doRequest(router, http.MethodGet, "/metrics", "", false)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAuthHandler_Register_DuplicateLogin(t *testing.T) {
	gw := &mockGateway{
		registerFn: func(_ context.Context, in model.EmployeeInput) (*model.Token, error) {
			if in.Login != "ivanov" {
				t.Errorf("login = %q", in.Login)
			}
			return nil, &model.UpstreamError{Service: "identity", Op: "register", Status: 422, Detail: "Login already registered"}
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodPost, "/authentication/register",
		`{"last_name":"ivanov","first_name":"ivan","email":"i@example.com","login":"ivanov","password":"p","is_supervisor":"no","is_vacation":"no"}`, false)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := parseErrorBody(t, w)
	if body["code"] != model.ErrCodeValidationFailed || body["detail"] != "Login already registered" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	w := doRequest(router, http.MethodPost, "/authentication/register", `{"login":`, false)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Token(t *testing.T) {
	gw := &mockGateway{
		loginFn: func(_ context.Context, username, password string) (*model.Token, error) {
			if username == "ivanov" && password == "secret" {
				return &model.Token{AccessToken: "jwt", TokenType: "bearer"}, nil
			}
			return nil, &model.UpstreamError{Service: "identity", Op: "log in", Status: 401, Detail: "Incorrect username or password"}
		},
	}
	router := newTestRouter(t, gw, nil)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/authentication/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("成功", func(t *testing.T) {
		w := post(url.Values{"username": {"ivanov"}, "password": {"secret"}})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var tok model.Token
		json.NewDecoder(w.Body).Decode(&tok)
		if tok.AccessToken != "jwt" || tok.TokenType != "bearer" {
			t.Errorf("token = %+v", tok)
		}
	})

	t.Run("資格情報の誤り", func(t *testing.T) {
		w := post(url.Values{"username": {"ivanov"}, "password": {"wrong"}})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if body := parseErrorBody(t, w); body["detail"] != "Incorrect username or password" {
			t.Errorf("body = %v", body)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	w := doRequest(router, http.MethodGet, "/authentication/users/me", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got map[string]interface{}
	json.NewDecoder(w.Body).Decode(&got)
	if got["id"] != float64(7) || got["username"] != "ivanov" || got["email"] != "ivanov@example.com" {
		t.Errorf("body = %v", got)
	}
}

func TestAuthHandler_NotifyDueTasks(t *testing.T) {
	trigger := &countingTrigger{}
	router := newTestRouter(t, &mockGateway{}, trigger)

	w := doRequest(router, http.MethodPost, "/authentication/notify_due_tasks", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"message":"Notification task has been scheduled"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if trigger.calls.Load() != 1 {
		t.Errorf("Trigger calls = %d, want 1", trigger.calls.Load())
	}
}

func TestEmployeeHandler_GetEmployee_InvalidID(t *testing.T) {
	var buf bytes.Buffer
	router := NewRouter(&RouterDeps{
		Authenticator: mockAuthenticator{},
		Logger:        newTestLogger(&buf),
		Employees:     gateway.NewService(nil, nil, newTestLogger(&buf)),
	})

	for _, path := range []string{"/employee-service/employee/0", "/employee-service/employee/-3", "/employee-service/employee/abc"} {
		w := doRequest(router, http.MethodGet, path, "", true)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
			continue
		}
		if body := parseErrorBody(t, w); body["message"] != "Invalid user ID" {
			t.Errorf("%s: message = %v", path, body["message"])
		}
	}
}

func TestEmployeeHandler_ListSubdivisions_EmptyMembers(t *testing.T) {
	gw := &mockGateway{
		listSubdivisionsFn: func(context.Context) ([]model.Subdivision, error) {
			return []model.Subdivision{{ID: 1, Name: "dev", EmployeeIDs: []int{}}}, nil
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodGet, "/employee-service/subdivision/get_all", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"employee_ids":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestEmployeeHandler_AssignEmployee_RequiresQuery(t *testing.T) {
	gw := &mockGateway{
		assignEmployeeFn: func(_ context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
			if subdivisionID != 3 || employeeID != 9 {
				t.Errorf("ids = %d, %d", subdivisionID, employeeID)
			}
			return json.RawMessage(`{"message":"ok"}`), nil
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodPut, "/employee-service/subdivision/assign_employee?subdivision_id=3", "", true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("employee_id なし: status = %d, want 400", w.Code)
	}

	w = doRequest(router, http.MethodPut, "/employee-service/subdivision/assign_employee?subdivision_id=3&employee_id=9", "", true)
	if w.Code != http.StatusOK || w.Body.String() != `{"message":"ok"}` {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestTaskHandler_CreateTask_UnknownProject(t *testing.T) {
	gw := &mockGateway{
		createTaskFn: func(_ context.Context, in model.TaskInput) (*model.Task, error) {
			if in.ProjectID != 999 || in.DueDate.IsZero() {
				t.Errorf("input = %+v", in)
			}
			return nil, &model.UpstreamError{Service: "tasks", Op: "create task", Status: 404, Detail: "Project not found"}
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodPost, "/task-service/task/add",
		`{"title":"t","description":"d","due_date":"2025-03-01T10:00:00Z","project_id":999,"type":"at work"}`, true)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := parseErrorBody(t, w); body["code"] != model.ErrCodeNotFound || body["detail"] != "Project not found" {
		t.Errorf("body = %v", body)
	}
}

func TestTaskHandler_SearchTasks_ParsesQuery(t *testing.T) {
	gw := &mockGateway{
		searchTasksFn: func(_ context.Context, q model.TaskQuery) ([]model.Task, error) {
			if q.UserID == nil || *q.UserID != 4 || q.ProjectID != nil || q.Title != "report" {
				t.Errorf("query = %+v", q)
			}
			return []model.Task{}, nil
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodGet, "/task-service/task/search?title=report&user_id=4", "", true)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/task-service/task/search?user_id=x", "", true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("不正なuser_id: status = %d, want 400", w.Code)
	}
}

func TestTaskHandler_UpdateTask_ForwardsBackendBody(t *testing.T) {
	gw := &mockGateway{
		updateTaskFn: func(_ context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error) {
			if id != 5 || in.Type != model.TaskStatusCompleted || in.HoursSpent == nil || *in.HoursSpent != 3 {
				t.Errorf("id = %d, input = %+v", id, in)
			}
			return json.RawMessage(`{"id":5,"type":"completed"}`), nil
		},
	}
	router := newTestRouter(t, gw, nil)

	w := doRequest(router, http.MethodPut, "/task-service/task/update?id=5", `{"type":"completed","hours_spent":3}`, true)

	if w.Code != http.StatusOK || w.Body.String() != `{"id":5,"type":"completed"}` {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRouter_GraphQLBehindGate(t *testing.T) {
	router := newTestRouter(t, &mockGateway{}, nil)

	w := doRequest(router, http.MethodPost, "/graphql", `{"query":"{allTask{id}}"}`, true)

	if w.Code != http.StatusOK || w.Body.String() != `{"data":{}}` {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
