// Package scheduler は定期ジョブ（速報監視・タグ付け・翻訳・期限切れスイープ）の
// cron実行を提供する。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrSkipped は同じジョブの前回の実行が終わっていないため実行を見送ったことを表す。
var ErrSkipped = errors.New("前回の実行が終わっていないためスキップしました")

// Job は定期実行するジョブ。
type Job struct {
	Name string
	// Spec は標準のcron式または記述子（"@every 10m" など）。
	Spec string
	Run  func(ctx context.Context) error
	// RunOnStart がtrueの場合、Start直後に1回実行する。
	RunOnStart bool
}

// Metrics はジョブ実行の記録先。metrics.Collectorが実装する。
type Metrics interface {
	RecordJobRun(job string, d time.Duration, ok bool)
	RecordJobSkipped(job string)
}

type entry struct {
	job     Job
	running atomic.Bool
}

// Scheduler はジョブをcron式に従って実行する。
// 同じジョブの実行は重ならず、前回の実行中に来た起動はスキップする。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics Metrics

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	wg      sync.WaitGroup
}

// New はUTCで動作するSchedulerを生成する。metricsはnilでもよい。
func New(logger *slog.Logger, metrics Metrics) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger,
		metrics: metrics,
		entries: make(map[string]*entry),
	}
}

// Add はジョブを登録する。cron式が不正な場合や名前が重複する場合はエラーを返す。
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("ジョブ名と実行関数は必須です")
	}
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return fmt.Errorf("ジョブ %s のスケジュールが不正です: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[job.Name]; dup {
		return fmt.Errorf("ジョブ %s は既に登録されています", job.Name)
	}
	s.entries[job.Name] = &entry{job: job}
	s.order = append(s.order, job.Name)
	return nil
}

// Jobs は登録済みのジョブ名を登録順に返す。
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// RunJob は名前を指定してジョブを1回実行する。
// 同じジョブが実行中の場合はErrSkippedを返す。
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("未登録のジョブです: %s", name)
	}
	return s.run(ctx, e)
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	name := e.job.Name
	if !e.running.CompareAndSwap(false, true) {
		s.logger.Warn("ジョブの実行をスキップしました", slog.String("job", name))
		if s.metrics != nil {
			s.metrics.RecordJobSkipped(name)
		}
		return ErrSkipped
	}
	defer e.running.Store(false)

	start := time.Now()
	err := e.job.Run(ctx)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordJobRun(name, duration, err == nil)
	}
	if err != nil {
		s.logger.Error("ジョブの実行に失敗しました",
			slog.String("job", name),
			slog.String("error", err.Error()),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return err
	}
	s.logger.Info("ジョブの実行が完了しました",
		slog.String("job", name),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}

// Start は登録済みのジョブをcronに登録して起動し、ctxがキャンセルされるまでブロックする。
// 終了時は実行中のジョブの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	var startup []*entry
	for _, name := range s.order {
		e := s.entries[name]
		if _, err := s.cron.AddFunc(e.job.Spec, func() { s.run(ctx, e) }); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("ジョブ %s の登録に失敗しました: %w", name, err)
		}
		if e.job.RunOnStart {
			startup = append(startup, e)
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("スケジューラを起動しました", slog.Int("jobs", len(s.order)))

	for _, e := range startup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, e)
		}()
	}

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.wg.Wait()

	s.logger.Info("スケジューラを停止しました")
	return nil
}
