// Package gateway はREST・GraphQLの両方から使う集約・変換レイヤーを提供する。
// 読み取りは1回のバックエンド呼び出しをそのまま写像し、
// 書き込みは入力を検証してから明示的なワイヤ形式で1回だけ送信する。
// 失敗したバックエンド呼び出しは再試行せず、ステータスと detail を保ったまま返す。
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kainbear/interface-service/internal/model"
)

// IdentityBackend はidentityサービスへの呼び出し。
type IdentityBackend interface {
	Register(ctx context.Context, in model.EmployeeInput) (*model.Token, error)
	Login(ctx context.Context, username, password string) (*model.Token, error)

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

// TaskBackend はtaskサービスへの呼び出し。
type TaskBackend interface {
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

// Service は集約・変換レイヤー。状態を持たず、全ての読み取りは呼び出し時点のバックエンドを反映する。
type Service struct {
	identity IdentityBackend
	tasks    TaskBackend
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(identity IdentityBackend, tasks TaskBackend, logger *slog.Logger) *Service {
	return &Service{identity: identity, tasks: tasks, logger: logger}
}

// ListEmployees は全従業員を返す。
func (s *Service) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	employees, err := s.identity.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(employees), nil
}

// ListVacations は全ての休暇・出張を返す。
func (s *Service) ListVacations(ctx context.Context) ([]model.Vacation, error) {
	vacations, err := s.identity.ListVacations(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(vacations), nil
}

// ListSubdivisions は全部署を返す。各部署の employee_ids は常に非nilのリスト。
func (s *Service) ListSubdivisions(ctx context.Context) ([]model.Subdivision, error) {
	subdivisions, err := s.identity.ListSubdivisions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subdivisions {
		subdivisions[i].EmployeeIDs = nonNil(subdivisions[i].EmployeeIDs)
	}
	return nonNil(subdivisions), nil
}

// ListProjects は全プロジェクトを返す。
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := s.tasks.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(projects), nil
}

// ListTasks は全タスクを返す。
func (s *Service) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(tasks), nil
}

// CreateEmployee は従業員を作成する。
func (s *Service) CreateEmployee(ctx context.Context, in model.EmployeeInput) (*model.Employee, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	e, err := s.identity.CreateEmployee(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("従業員を作成しました", slog.Int("employee_id", e.ID))
	return e, nil
}

// CreateVacation は休暇・出張を作成する。
func (s *Service) CreateVacation(ctx context.Context, in model.VacationInput) (*model.Vacation, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.identity.CreateVacation(ctx, in)
}

// CreateSubdivision は部署を作成する。
// 応答に employee_ids がない場合は一覧取得と同じく契約違反として扱う。
func (s *Service) CreateSubdivision(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	sub, err := s.identity.CreateSubdivision(ctx, in)
	if err != nil {
		return nil, err
	}
	sub.EmployeeIDs = nonNil(sub.EmployeeIDs)
	return sub, nil
}

// CreateProject はプロジェクトを作成する。
func (s *Service) CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.tasks.CreateProject(ctx, in)
}

// CreateTask はタスクを作成する。
// プロジェクトの存在確認は行わず、バックエンドの404/422をそのまま返す。
func (s *Service) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	t, err := s.tasks.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("タスクを作成しました", slog.Int("task_id", t.ID), slog.Int("project_id", in.ProjectID))
	return t, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
