package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// EmployeeInput は従業員の登録・作成時の入力。
type EmployeeInput struct {
	LastName     string `json:"last_name" validate:"required"`
	FirstName    string `json:"first_name" validate:"required"`
	Patronymic   string `json:"patronymic,omitempty"`
	Email        string `json:"email" validate:"required,email"`
	Login        string `json:"login,omitempty"`
	Password     string `json:"password,omitempty"`
	IsSupervisor YesNo  `json:"is_supervisor" validate:"required,oneof=yes no"`
	IsVacation   YesNo  `json:"is_vacation" validate:"required,oneof=yes no"`
}

// EmployeeUpdateInput は従業員更新時の入力。空の項目は送信しない。
type EmployeeUpdateInput struct {
	LastName     string `json:"last_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	Patronymic   string `json:"patronymic,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Login        string `json:"login,omitempty"`
	Password     string `json:"password,omitempty"`
	IsSupervisor YesNo  `json:"is_supervisor" validate:"required,oneof=yes no"`
	IsVacation   YesNo  `json:"is_vacation" validate:"required,oneof=yes no"`
}

// VacationInput は休暇・出張の作成時の入力。
type VacationInput struct {
	EmployeeID int          `json:"employee_id" validate:"required,gt=0"`
	Type       VacationType `json:"type" validate:"required,oneof=vacation business"`
	StartDate  *Date        `json:"start_date,omitempty"`
	EndDate    *Date        `json:"end_date,omitempty"`
}

// VacationUpdateInput は休暇・出張の更新時の入力。
type VacationUpdateInput struct {
	EmployeeID *int         `json:"employee_id,omitempty" validate:"omitempty,gt=0"`
	Type       VacationType `json:"type" validate:"required,oneof=vacation business"`
	StartDate  *Date        `json:"start_date,omitempty"`
	EndDate    *Date        `json:"end_date,omitempty"`
}

// VacationQuery は休暇・出張の検索条件。
type VacationQuery struct {
	EmployeeID *int
	Type       VacationType `validate:"required,oneof=vacation business"`
}

// SubdivisionInput は部署の作成時の入力。
type SubdivisionInput struct {
	Name     string `json:"name" validate:"required"`
	LeaderID *int   `json:"leader_id,omitempty" validate:"omitempty,gt=0"`
}

// ProjectInput はプロジェクトの作成・更新時の入力。
type ProjectInput struct {
	Name string     `json:"name" validate:"required"`
	Type TaskStatus `json:"type" validate:"required,oneof='at work' completed failed"`
}

// TaskInput はタスクの作成時の入力。
type TaskInput struct {
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description" validate:"required"`
	DueDate       Timestamp  `json:"due_date"`
	ActualDueDate *Timestamp `json:"actual_due_date,omitempty"`
	HoursSpent    int        `json:"hours_spent" validate:"gte=0"`
	UserID        *int       `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID     int        `json:"project_id" validate:"required,gt=0"`
	Type          TaskStatus `json:"type" validate:"required,oneof='at work' completed failed"`
}

// TaskUpdateInput はタスクの更新時の入力。nilの項目は送信しない。
type TaskUpdateInput struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	DueDate       *Timestamp `json:"due_date,omitempty"`
	ActualDueDate *Timestamp `json:"actual_due_date,omitempty"`
	HoursSpent    *int       `json:"hours_spent,omitempty" validate:"omitempty,gte=0"`
	UserID        *int       `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID     *int       `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	Type          TaskStatus `json:"type" validate:"required,oneof='at work' completed failed"`
}

// TaskQuery はタスクの検索条件。未設定の項目は条件に含めない。
type TaskQuery struct {
	ID          *int
	Title       string
	Description string
	UserID      *int
	ProjectID   *int
	Project     string
}

// requiredTimes は validate タグで表現できない時刻の必須チェックを返す。
func (in *TaskInput) requiredTimes() []string {
	if in.DueDate.IsZero() {
		return []string{"due_date: failed on 'required'"}
	}
	return nil
}

type timeChecker interface {
	requiredTimes() []string
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// エラーメッセージにはJSONのフィールド名を使う
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(f.Name)
			}
			return name
		})
	})
	return validate
}

// Validate は入力構造体のvalidateタグを検証する。
// 違反がある場合はフィールド名を列挙したVALIDATION_FAILEDのAPIErrorを返す。
func Validate(input interface{}) error {
	var details []string

	if err := inputValidator().Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return NewValidationError(err.Error())
		}
		for _, fe := range verrs {
			details = append(details, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
		}
	}
	if tc, ok := input.(timeChecker); ok {
		details = append(details, tc.requiredTimes()...)
	}

	if len(details) > 0 {
		return NewValidationError(strings.Join(details, "; "))
	}
	return nil
}
