package gateway

import (
	"context"
	"encoding/json"

	"github.com/kainbear/interface-service/internal/model"
)

// このファイルはRESTの透過ルート用の操作を定義する。
// 入力の形式検証のみ行い、1回のバックエンド呼び出しに写像する。

// Register は従業員を登録してトークンを返す。
func (s *Service) Register(ctx context.Context, in model.EmployeeInput) (*model.Token, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	tok, err := s.identity.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return bearer(tok), nil
}

// Login は資格情報をidentityサービスに渡してトークンを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Token, error) {
	if username == "" || password == "" {
		return nil, model.NewInvalidRequestError("username and password are required")
	}
	tok, err := s.identity.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return bearer(tok), nil
}

// bearer はトークン種別を常に "bearer" に揃える。
func bearer(tok *model.Token) *model.Token {
	return &model.Token{AccessToken: tok.AccessToken, TokenType: model.TokenTypeBearer}
}

// GetEmployee はIDで従業員を取得する。
func (s *Service) GetEmployee(ctx context.Context, id int) (*model.Employee, error) {
	if id <= 0 {
		return nil, model.NewInvalidRequestError("Invalid user ID")
	}
	return s.identity.GetEmployee(ctx, id)
}

// UpdateEmployee は従業員を更新する。
func (s *Service) UpdateEmployee(ctx context.Context, id int, in model.EmployeeUpdateInput) (json.RawMessage, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.identity.UpdateEmployee(ctx, id, in)
}

// DeleteEmployee は従業員を削除する。
func (s *Service) DeleteEmployee(ctx context.Context, id int) (json.RawMessage, error) {
	return s.identity.DeleteEmployee(ctx, id)
}

// GetSubdivision はIDで部署を取得する。
func (s *Service) GetSubdivision(ctx context.Context, id int) (*model.Subdivision, error) {
	return s.identity.GetSubdivision(ctx, id)
}

// RenameSubdivision は部署名を変更する。
func (s *Service) RenameSubdivision(ctx context.Context, id int, name string) (json.RawMessage, error) {
	if name == "" {
		return nil, model.NewValidationError("name: failed on 'required'")
	}
	return s.identity.RenameSubdivision(ctx, id, name)
}

// AssignLeader は部署の責任者を設定する。
func (s *Service) AssignLeader(ctx context.Context, subdivisionID, leaderID int) (json.RawMessage, error) {
	return s.identity.AssignLeader(ctx, subdivisionID, leaderID)
}

// AssignEmployee は従業員を部署に所属させる。
func (s *Service) AssignEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
	return s.identity.AssignEmployee(ctx, subdivisionID, employeeID)
}

// RemoveEmployee は従業員を部署から外す。
func (s *Service) RemoveEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
	return s.identity.RemoveEmployee(ctx, subdivisionID, employeeID)
}

// DeleteSubdivision は部署を削除する。
func (s *Service) DeleteSubdivision(ctx context.Context, id int) (json.RawMessage, error) {
	return s.identity.DeleteSubdivision(ctx, id)
}

// SearchVacations は休暇・出張を検索する。
func (s *Service) SearchVacations(ctx context.Context, q model.VacationQuery) (json.RawMessage, error) {
	if err := model.Validate(&q); err != nil {
		return nil, err
	}
	return s.identity.SearchVacations(ctx, q)
}

// UpdateVacation は休暇・出張を更新する。
func (s *Service) UpdateVacation(ctx context.Context, id int, in model.VacationUpdateInput) (json.RawMessage, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.identity.UpdateVacation(ctx, id, in)
}

// DeleteVacation は休暇・出張を削除する。
func (s *Service) DeleteVacation(ctx context.Context, id int) (json.RawMessage, error) {
	return s.identity.DeleteVacation(ctx, id)
}

// UpdateProject はプロジェクトを更新する。
func (s *Service) UpdateProject(ctx context.Context, id int, in model.ProjectInput) (json.RawMessage, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.tasks.UpdateProject(ctx, id, in)
}

// DeleteProject はプロジェクトを削除する。
func (s *Service) DeleteProject(ctx context.Context, id int) (json.RawMessage, error) {
	return s.tasks.DeleteProject(ctx, id)
}

// SearchTasks はタスクを検索する。
func (s *Service) SearchTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	tasks, err := s.tasks.SearchTasks(ctx, q)
	if err != nil {
		return nil, err
	}
	return nonNil(tasks), nil
}

// UpdateTask はタスクを更新する。
func (s *Service) UpdateTask(ctx context.Context, id int, in model.TaskUpdateInput) (json.RawMessage, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.tasks.UpdateTask(ctx, id, in)
}

// DeleteTask はタスクを削除する。
func (s *Service) DeleteTask(ctx context.Context, id int) (json.RawMessage, error) {
	return s.tasks.DeleteTask(ctx, id)
}
