// Package notify は期限が近いタスクの担当者へリマインダーメールを送る。
// Pipeline が1回分の通知処理を行い、Scheduler が定時実行と手動起動を管理する。
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kainbear/interface-service/internal/mail"
	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/model"
)

// DueWindow は通知対象とする期限までの時間幅。
const DueWindow = 24 * time.Hour

// TaskSource は期限が近いタスクを取得する。
type TaskSource interface {
	ListDueTasks(ctx context.Context, before time.Time) ([]model.Task, error)
}

// EmployeeSource はタスク担当者を解決する。
type EmployeeSource interface {
	GetEmployee(ctx context.Context, id int) (*model.Employee, error)
}

// Sender はメールを送信する。成功した場合のみ true を返す。
type Sender interface {
	Send(ctx context.Context, subject string, recipients []string, body string) bool
}

// Outcome はタスク1件分の通知結果。
type Outcome string

// 通知結果の種別。メトリクスのラベルにも使う。
const (
	OutcomeSent           Outcome = "sent"
	OutcomeNoOwner        Outcome = "no_owner"
	OutcomeResolveFailed  Outcome = "resolve_failed"
	OutcomeNoEmail        Outcome = "no_email"
	OutcomeDispatchFailed Outcome = "dispatch_failed"
)

// ItemResult はタスク1件の処理結果を表す。
type ItemResult struct {
	TaskID  int
	Title   string
	OwnerID *int
	Email   string
	Outcome Outcome
	Err     error
}

// Report は通知1回分の結果を表す。
type Report struct {
	PassID    string
	StartedAt time.Time
	DueBefore time.Time
	Duration  time.Duration
	Items     []ItemResult
	Overdue   int // 期限切れのため対象外としたタスク数
}

// Count は指定した結果のタスク件数を返す。
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == o {
			n++
		}
	}
	return n
}

// Pipeline は期限タスクの取得・担当者解決・メール送信を行う。
type Pipeline struct {
	tasks          TaskSource
	employees      EmployeeSource
	sender         Sender
	logger         *slog.Logger
	metrics        metrics.MetricsCollector
	maxConcurrency int
	now            func() time.Time
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewPipeline(
	tasks TaskSource,
	employees EmployeeSource,
	sender Sender,
	logger *slog.Logger,
	mc metrics.MetricsCollector,
	maxConcurrency int,
) *Pipeline {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Pipeline{
		tasks:          tasks,
		employees:      employees,
		sender:         sender,
		logger:         logger,
		metrics:        mc,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// RunOnce は通知を1回実行する。
// 期限タスクの取得に失敗した場合はメールを1通も送らずにエラーを返す。
// タスク単位の失敗は結果に記録し、残りのタスクの処理を継続する。
func (p *Pipeline) RunOnce(ctx context.Context) (*Report, error) {
	started := p.now()
	report := &Report{
		PassID:    uuid.NewString(),
		StartedAt: started,
		DueBefore: started.Add(DueWindow),
	}
	logger := p.logger.With(slog.String("pass_id", report.PassID))

	tasks, err := p.tasks.ListDueTasks(ctx, report.DueBefore)
	if err != nil {
		report.Duration = p.now().Sub(started)
		p.metrics.RecordNotificationPass(report.Duration, true)
		logger.Error("期限タスクの取得に失敗しました", slog.String("error", err.Error()))
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	tasks, report.Overdue = withinWindow(tasks, started)

	report.Items = make([]ItemResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(p.maxConcurrency)
	for i := range tasks {
		g.Go(func() error {
			report.Items[i] = p.notifyOwner(ctx, logger, &tasks[i])
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = p.now().Sub(started)
	for _, item := range report.Items {
		p.metrics.RecordNotificationOutcome(string(item.Outcome))
	}
	p.metrics.RecordNotificationPass(report.Duration, false)

	logger.Info("期限通知を完了しました",
		slog.Int("tasks", len(tasks)),
		slog.Int("sent", report.Count(OutcomeSent)),
		slog.Int("no_owner", report.Count(OutcomeNoOwner)),
		slog.Int("resolve_failed", report.Count(OutcomeResolveFailed)),
		slog.Int("no_email", report.Count(OutcomeNoEmail)),
		slog.Int("dispatch_failed", report.Count(OutcomeDispatchFailed)),
		slog.Int("overdue", report.Overdue),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// withinWindow は期限が既に過ぎたタスクを除外し、除外件数を返す。
// taskサービスは上限のみで絞り込むため、下限はここで適用する。
func withinWindow(tasks []model.Task, now time.Time) ([]model.Task, int) {
	kept := tasks[:0]
	for _, t := range tasks {
		if !t.DueDate.IsZero() && t.DueDate.Before(now) {
			continue
		}
		kept = append(kept, t)
	}
	return kept, len(tasks) - len(kept)
}

func (p *Pipeline) notifyOwner(ctx context.Context, logger *slog.Logger, task *model.Task) ItemResult {
	result := ItemResult{TaskID: task.ID, Title: task.Title, OwnerID: task.UserID}
	if !task.HasOwner() {
		result.Outcome = OutcomeNoOwner
		return result
	}

	owner, err := p.employees.GetEmployee(ctx, *task.UserID)
	if err != nil {
		logger.Warn("タスク担当者の取得に失敗しました",
			slog.Int("task_id", task.ID),
			slog.Int("user_id", *task.UserID),
			slog.String("error", err.Error()),
		)
		result.Outcome = OutcomeResolveFailed
		result.Err = err
		return result
	}
	if owner.Email == "" {
		result.Outcome = OutcomeNoEmail
		return result
	}
	result.Email = owner.Email

	subject, body := mail.DueDateReminder(task)
	if !p.sender.Send(ctx, subject, []string{owner.Email}, body) {
		result.Outcome = OutcomeDispatchFailed
		return result
	}
	result.Outcome = OutcomeSent
	return result
}
