package mail

import (
	"fmt"

	"github.com/kainbear/interface-service/internal/model"
)

// DueDateReminderSubject は期限通知メールの件名。
const DueDateReminderSubject = "Task Due Date Reminder"

// DueDateReminder はタスクの期限通知メールの件名と本文を返す。
func DueDateReminder(task *model.Task) (subject, body string) {
	body = fmt.Sprintf("Dear user,\n\nThis is a reminder that the task '%s' is due soon.\n\nRegards,\nYour Team", task.Title)
	return DueDateReminderSubject, body
}
