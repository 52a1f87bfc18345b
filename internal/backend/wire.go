package backend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kainbear/interface-service/internal/model"
)

// このファイルは入力の型ごとに送信するクエリパラメータを明示的に定義する。
// 時刻はRFC 3339、日付は YYYY-MM-DD、列挙型はワイヤ上の文字列に変換し、
// 未設定の任意項目は送信しない。

func employeeParams(in model.EmployeeInput) url.Values {
	v := url.Values{}
	v.Set("last_name", in.LastName)
	v.Set("first_name", in.FirstName)
	setString(v, "patronymic", in.Patronymic)
	v.Set("email", in.Email)
	setString(v, "login", in.Login)
	setString(v, "password", in.Password)
	v.Set("is_supervisor", string(in.IsSupervisor))
	v.Set("is_vacation", string(in.IsVacation))
	return v
}

func employeeUpdateParams(id int, in model.EmployeeUpdateInput) url.Values {
	v := url.Values{}
	v.Set("id", strconv.Itoa(id))
	setString(v, "last_name", in.LastName)
	setString(v, "first_name", in.FirstName)
	setString(v, "patronymic", in.Patronymic)
	setString(v, "email", in.Email)
	setString(v, "login", in.Login)
	setString(v, "password", in.Password)
	v.Set("is_supervisor", string(in.IsSupervisor))
	v.Set("is_vacation", string(in.IsVacation))
	return v
}

func vacationParams(in model.VacationInput) url.Values {
	v := url.Values{}
	v.Set("employee_id", strconv.Itoa(in.EmployeeID))
	v.Set("type", string(in.Type))
	setDate(v, "start_date", in.StartDate)
	setDate(v, "end_date", in.EndDate)
	return v
}

func vacationUpdateParams(id int, in model.VacationUpdateInput) url.Values {
	v := url.Values{}
	v.Set("id", strconv.Itoa(id))
	setInt(v, "employee_id", in.EmployeeID)
	v.Set("type", string(in.Type))
	setDate(v, "start_date", in.StartDate)
	setDate(v, "end_date", in.EndDate)
	return v
}

func vacationQueryParams(q model.VacationQuery) url.Values {
	v := url.Values{}
	setInt(v, "employee_id", q.EmployeeID)
	v.Set("type", string(q.Type))
	return v
}

func subdivisionParams(in model.SubdivisionInput) url.Values {
	v := url.Values{}
	v.Set("name", in.Name)
	setInt(v, "leader_id", in.LeaderID)
	return v
}

func projectParams(in model.ProjectInput) url.Values {
	v := url.Values{}
	v.Set("name", in.Name)
	v.Set("type", string(in.Type))
	return v
}

func taskParams(in model.TaskInput) url.Values {
	v := url.Values{}
	v.Set("title", in.Title)
	v.Set("description", in.Description)
	v.Set("due_date", in.DueDate.Wire())
	setTimestamp(v, "actual_due_date", in.ActualDueDate)
	v.Set("hours_spent", strconv.Itoa(in.HoursSpent))
	setInt(v, "user_id", in.UserID)
	v.Set("project_id", strconv.Itoa(in.ProjectID))
	v.Set("type", string(in.Type))
	return v
}

func taskUpdateParams(id int, in model.TaskUpdateInput) url.Values {
	v := url.Values{}
	v.Set("id", strconv.Itoa(id))
	if in.Title != nil {
		v.Set("title", *in.Title)
	}
	if in.Description != nil {
		v.Set("description", *in.Description)
	}
	setTimestamp(v, "due_date", in.DueDate)
	setTimestamp(v, "actual_due_date", in.ActualDueDate)
	setInt(v, "hours_spent", in.HoursSpent)
	setInt(v, "user_id", in.UserID)
	setInt(v, "project_id", in.ProjectID)
	v.Set("type", string(in.Type))
	return v
}

func taskQueryParams(q model.TaskQuery) url.Values {
	v := url.Values{}
	setInt(v, "id", q.ID)
	setString(v, "title", q.Title)
	setString(v, "description", q.Description)
	setInt(v, "user_id", q.UserID)
	setInt(v, "project_id", q.ProjectID)
	setString(v, "project", q.Project)
	return v
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val *int) {
	if val != nil {
		v.Set(key, strconv.Itoa(*val))
	}
}

func setDate(v url.Values, key string, d *model.Date) {
	if d != nil && !d.IsZero() {
		v.Set(key, d.Wire())
	}
}

func setTimestamp(v url.Values, key string, ts *model.Timestamp) {
	if ts != nil && !ts.IsZero() {
		v.Set(key, ts.Wire())
	}
}

// decodeSubdivisions は部署一覧をデコードする。
// employee_ids を持たないレコードが1件でもあれば一覧全体を CONTRACT_VIOLATION とする。
func decodeSubdivisions(body []json.RawMessage) ([]model.Subdivision, error) {
	out := make([]model.Subdivision, 0, len(body))
	for _, raw := range body {
		s, err := decodeSubdivision(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeSubdivision は部署1件をデコードする。
// employee_ids キーが存在しなければ契約違反、null は空リストに正規化する。
func decodeSubdivision(raw json.RawMessage) (model.Subdivision, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Subdivision{}, model.NewContractViolationError(ServiceIdentity, "subdivision record is not an object")
	}
	if _, ok := fields["employee_ids"]; !ok {
		var id int
		_ = json.Unmarshal(fields["id"], &id)
		return model.Subdivision{}, model.NewContractViolationError(ServiceIdentity,
			fmt.Sprintf("'employee_ids' key is missing in subdivision %d", id))
	}

	var s model.Subdivision
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Subdivision{}, model.NewContractViolationError(ServiceIdentity, fmt.Sprintf("decode subdivision: %v", err))
	}
	if s.EmployeeIDs == nil {
		s.EmployeeIDs = []int{}
	}
	return s, nil
}
