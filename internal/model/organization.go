package model

// VacationType は不在の種別（休暇または出張）。
type VacationType string

const (
	// VacationTypeVacation は休暇。
	VacationTypeVacation VacationType = "vacation"
	// VacationTypeBusiness は出張。
	VacationTypeBusiness VacationType = "business"
)

// Valid は既知の種別かどうかを返す。
func (v VacationType) Valid() bool {
	return v == VacationTypeVacation || v == VacationTypeBusiness
}

// Vacation は社員の休暇・出張を表す。
type Vacation struct {
	ID         int          `json:"id"`
	EmployeeID *int         `json:"employee_id"`
	Type       VacationType `json:"type"`
	StartDate  Date         `json:"start_date"`
	EndDate    Date         `json:"end_date"`
}

// Subdivision は部署を表す。
// EmployeeIDs はゲートウェイの境界で常に非nilのスライスとなる。
type Subdivision struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	LeaderID    *int   `json:"leader_id"`
	EmployeeIDs []int  `json:"employee_ids"`
}
