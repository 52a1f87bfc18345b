package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/model"
)

// IdentityClient は従業員・部署・休暇を管理するidentityサービスのクライアント。
type IdentityClient struct {
	caller
}

// NewIdentityClient はIdentityClientの新しいインスタンスを生成する。
func NewIdentityClient(baseURL string, httpClient *http.Client, logger *slog.Logger, mc metrics.MetricsCollector) *IdentityClient {
	return &IdentityClient{caller: newCaller(ServiceIdentity, baseURL, httpClient, logger, mc)}
}

// Me はログイン名に対応する従業員を取得する。
func (c *IdentityClient) Me(ctx context.Context, login string) (*model.Employee, error) {
	var e model.Employee
	err := c.do(ctx, call{
		op:     "fetch current user",
		method: http.MethodGet,
		path:   "/employee/users/me",
		query:  url.Values{"login": {login}},
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Register は従業員を登録し、発行されたトークンを返す。
func (c *IdentityClient) Register(ctx context.Context, in model.EmployeeInput) (*model.Token, error) {
	var tok model.Token
	err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/employee/register",
		query:  employeeParams(in),
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Login は資格情報をフォーム形式で送信し、トークンを返す。
func (c *IdentityClient) Login(ctx context.Context, username, password string) (*model.Token, error) {
	var tok model.Token
	err := c.do(ctx, call{
		op:     "log in",
		method: http.MethodPost,
		path:   "/employee/token",
		form:   url.Values{"username": {username}, "password": {password}},
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// ListEmployees は全従業員をバックエンドの順序のまま返す。
func (c *IdentityClient) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	employees := []model.Employee{}
	err := c.do(ctx, call{op: "fetch users", method: http.MethodGet, path: "/employee/get_all"}, &employees)
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// GetEmployee はIDで従業員を取得する。
func (c *IdentityClient) GetEmployee(ctx context.Context, id int) (*model.Employee, error) {
	var e model.Employee
	err := c.do(ctx, call{op: "fetch user", method: http.MethodGet, path: "/employee/" + strconv.Itoa(id)}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEmployee は従業員を作成する。
func (c *IdentityClient) CreateEmployee(ctx context.Context, in model.EmployeeInput) (*model.Employee, error) {
	var e model.Employee
	err := c.do(ctx, call{
		op:     "create employee",
		method: http.MethodPost,
		path:   "/employee/add",
		query:  employeeParams(in),
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee は従業員を更新し、応答をそのまま返す。
func (c *IdentityClient) UpdateEmployee(ctx context.Context, id int, in model.EmployeeUpdateInput) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "update employee",
		method: http.MethodPut,
		path:   "/employee/update",
		query:  employeeUpdateParams(id, in),
	})
}

// DeleteEmployee は従業員を削除する。
func (c *IdentityClient) DeleteEmployee(ctx context.Context, id int) (json.RawMessage, error) {
	return c.raw(ctx, call{op: "delete employee", method: http.MethodDelete, path: "/employee/" + strconv.Itoa(id)})
}

// ListSubdivisions は全部署を返す。employee_ids を欠くレコードがあれば全体をエラーとする。
func (c *IdentityClient) ListSubdivisions(ctx context.Context) ([]model.Subdivision, error) {
	var records []json.RawMessage
	if err := c.do(ctx, call{op: "fetch subdivisions", method: http.MethodGet, path: "/subdivision/get_all"}, &records); err != nil {
		return nil, err
	}
	return decodeSubdivisions(records)
}

// GetSubdivision はIDで部署を取得する。
func (c *IdentityClient) GetSubdivision(ctx context.Context, id int) (*model.Subdivision, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "fetch subdivision", method: http.MethodGet, path: "/subdivision/" + strconv.Itoa(id)}, &raw); err != nil {
		return nil, err
	}
	s, err := decodeSubdivision(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubdivision は部署を作成する。
func (c *IdentityClient) CreateSubdivision(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:     "create subdivision",
		method: http.MethodPost,
		path:   "/subdivision/add",
		query:  subdivisionParams(in),
	}, &raw)
	if err != nil {
		return nil, err
	}
	s, err := decodeSubdivision(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RenameSubdivision は部署名を更新する。
func (c *IdentityClient) RenameSubdivision(ctx context.Context, id int, name string) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "update subdivision",
		method: http.MethodPut,
		path:   "/subdivision/update/" + strconv.Itoa(id),
		query:  url.Values{"subdivision_id": {strconv.Itoa(id)}, "name": {name}},
	})
}

// AssignLeader は部署の責任者を設定する。
func (c *IdentityClient) AssignLeader(ctx context.Context, subdivisionID, leaderID int) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "assign leader to subdivision",
		method: http.MethodPut,
		path:   "/subdivision/" + strconv.Itoa(subdivisionID) + "/assign_leader/" + strconv.Itoa(leaderID),
	})
}

// AssignEmployee は従業員を部署に所属させる。
func (c *IdentityClient) AssignEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "assign employee to subdivision",
		method: http.MethodPut,
		path:   "/subdivision/assign_employee",
		query: url.Values{
			"subdivision_id": {strconv.Itoa(subdivisionID)},
			"employee_id":    {strconv.Itoa(employeeID)},
		},
	})
}

// RemoveEmployee は従業員を部署から外す。
func (c *IdentityClient) RemoveEmployee(ctx context.Context, subdivisionID, employeeID int) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "remove employee from subdivision",
		method: http.MethodDelete,
		path:   "/subdivision/" + strconv.Itoa(subdivisionID) + "/employee/" + strconv.Itoa(employeeID),
	})
}

// DeleteSubdivision は部署を削除する。
func (c *IdentityClient) DeleteSubdivision(ctx context.Context, id int) (json.RawMessage, error) {
	return c.raw(ctx, call{op: "delete subdivision", method: http.MethodDelete, path: "/subdivision/" + strconv.Itoa(id)})
}

// ListVacations は全ての休暇・出張を返す。
func (c *IdentityClient) ListVacations(ctx context.Context) ([]model.Vacation, error) {
	vacations := []model.Vacation{}
	err := c.do(ctx, call{op: "fetch vacations", method: http.MethodGet, path: "/business_and_vacations/get_all"}, &vacations)
	if err != nil {
		return nil, err
	}
	return vacations, nil
}

// SearchVacations は条件に一致する休暇・出張の検索結果をそのまま返す。
func (c *IdentityClient) SearchVacations(ctx context.Context, q model.VacationQuery) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "search vacations",
		method: http.MethodGet,
		path:   "/business_and_vacations/search",
		query:  vacationQueryParams(q),
	})
}

// CreateVacation は休暇・出張を作成する。
func (c *IdentityClient) CreateVacation(ctx context.Context, in model.VacationInput) (*model.Vacation, error) {
	var v model.Vacation
	err := c.do(ctx, call{
		op:     "create vacation",
		method: http.MethodPost,
		path:   "/business_and_vacations/add",
		query:  vacationParams(in),
	}, &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVacation は休暇・出張を更新する。
func (c *IdentityClient) UpdateVacation(ctx context.Context, id int, in model.VacationUpdateInput) (json.RawMessage, error) {
	return c.raw(ctx, call{
		op:     "update vacation",
		method: http.MethodPut,
		path:   "/business_and_vacations/update",
		query:  vacationUpdateParams(id, in),
	})
}

// DeleteVacation は休暇・出張を削除する。
func (c *IdentityClient) DeleteVacation(ctx context.Context, id int) (json.RawMessage, error) {
	return c.raw(ctx, call{op: "delete vacation", method: http.MethodDelete, path: "/business_and_vacations/" + strconv.Itoa(id)})
}
