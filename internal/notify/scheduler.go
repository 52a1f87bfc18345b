package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// passKey は定時実行と手動起動で共有するsingleflightのキー。
const passKey = "due-task-notification"

// Runner は通知1回分を実行する。
type Runner interface {
	RunOnce(ctx context.Context) (*Report, error)
}

// Scheduler は通知の定時実行と手動起動を管理する。
// 実行中に届いた起動要求は新たな実行を始めず、実行中の処理に合流する。
type Scheduler struct {
	runner      Runner
	logger      *slog.Logger
	cron        *cron.Cron
	schedule    string
	passTimeout time.Duration
	group       singleflight.Group
	inflight    sync.WaitGroup

	mu      sync.Mutex
	stopped bool // Stop開始後は手動起動を受け付けない
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// 毎日 hour:minute (loc) に通知を実行する。passTimeoutが0の場合は実行時間を制限しない。
func NewScheduler(runner Runner, loc *time.Location, hour, minute int, passTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		schedule:    fmt.Sprintf("%d %d * * *", minute, hour),
		passTimeout: passTimeout,
	}
}

// Start は定時実行を登録して開始する。
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.fire("cron") }); err != nil {
		return fmt.Errorf("register notification schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("通知スケジューラを開始しました",
		slog.String("schedule", s.schedule),
		slog.String("timezone", s.cron.Location().String()),
	)
	return nil
}

// Stop は定時実行を停止し、実行中の通知の完了を待つ。
// ctxが先に終了した場合はその時点で戻る。
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("通知スケジューラを停止しました")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger は通知をバックグラウンドで起動し、即座に戻る。
// 実行はリクエストのコンテキストから切り離される。
// Stopの開始後に呼ばれた場合は何も起動しない。
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Warn("スケジューラ停止中のため期限通知を起動しませんでした")
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		s.fire("manual")
	}()
}

// Run は通知を実行し、完了まで待つ。実行中の通知があればその結果を共有する。
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	report, _, err := s.do(ctx)
	return report, err
}

func (s *Scheduler) do(ctx context.Context) (*Report, bool, error) {
	v, err, shared := s.group.Do(passKey, func() (interface{}, error) {
		return s.runner.RunOnce(ctx)
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Report), shared, nil
}

func (s *Scheduler) fire(source string) {
	ctx := context.Background()
	if s.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.passTimeout)
		defer cancel()
	}

	report, shared, err := s.do(ctx)
	if err != nil {
		s.logger.Error("期限通知に失敗しました",
			slog.String("source", source),
			slog.Bool("shared", shared),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("期限通知の起動を処理しました",
		slog.String("source", source),
		slog.String("pass_id", report.PassID),
		slog.Bool("shared", shared),
	)
}

// cronLogger はcronのログをslogに出力する。
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
