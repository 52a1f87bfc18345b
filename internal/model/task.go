package model

// TaskStatus はタスクおよびプロジェクトの進行状態。
// ワイヤ上の値はシンボル名ではなく文字列値（"at work" など）を使う。
type TaskStatus string

const (
	// TaskStatusAtWork は作業中。
	TaskStatusAtWork TaskStatus = "at work"
	// TaskStatusCompleted は完了。
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed は失敗。
	TaskStatusFailed TaskStatus = "failed"
)

// Valid は既知の状態かどうかを返す。
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusAtWork, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Task はtaskサービスが保持するタスクを表す。
type Task struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       Timestamp  `json:"due_date"`
	ActualDueDate Timestamp  `json:"actual_due_date"`
	HoursSpent    int        `json:"hours_spent"`
	UserID        *int       `json:"user_id"`
	ProjectID     *int       `json:"project_id"`
	Type          TaskStatus `json:"type"`
	Project       *Project   `json:"project,omitempty"` // 検索結果などで展開される所属プロジェクト
}

// HasOwner は担当者が設定されているかを返す。
func (t *Task) HasOwner() bool {
	return t.UserID != nil && *t.UserID > 0
}

// Project はtaskサービスが保持するプロジェクトを表す。
type Project struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Type TaskStatus `json:"type"`
}
