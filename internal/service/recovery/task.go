package recovery

import (
	"context"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/pkg/loopjob"
	"gitee.com/flycash/msgpulse/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

const lockKey = "msgpulse_recover_stale_records"

type Config struct {
	Enabled bool `yaml:"enabled"`
	// StaleAfter 非终态的记录超过这么久没有更新，就认为 job 已经丢了
	StaleAfter time.Duration `yaml:"staleAfter"`
	BatchSize  int           `yaml:"batchSize"`
	Interval   time.Duration `yaml:"interval"`
}

type Enqueuer interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

// Task 把进程崩溃或者重新入队失败留下的记录重新放回队列。
// worker 会跳过已经是终态的记录，所以重复入队是安全的。
type Task struct {
	dclient dlock.Client
	records repository.MessageRecordRepository
	queue   Enqueuer
	cfg     Config
	logger  *elog.Component
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration)
}

func NewTask(dclient dlock.Client, records repository.MessageRecordRepository, queue Enqueuer, cfg Config) *Task {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Task{
		dclient: dclient,
		records: records,
		queue:   queue,
		cfg:     cfg,
		logger:  elog.DefaultLogger.With(elog.String("task", lockKey)),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Start 阻塞到 ctx 结束
func (t *Task) Start(ctx context.Context) {
	if !t.cfg.Enabled {
		t.logger.Info("恢复任务未开启")
		return
	}
	lj := loopjob.NewInfiniteLoop(t.dclient, t.Recover, lockKey, loopjob.DefaultInterval)
	lj.Run(ctx)
}

func (t *Task) Recover(ctx context.Context) error {
	now := t.now()
	stale, err := t.records.FindStale(ctx, now.Add(-t.cfg.StaleAfter), t.cfg.BatchSize)
	if err != nil {
		t.sleep(ctx, t.cfg.Interval)
		return err
	}
	ids := make([]int64, 0, len(stale))
	for _, r := range stale {
		if err = t.queue.Enqueue(ctx, r.Job(now)); err != nil {
			t.logger.Warn("恢复入队失败", elog.Int64("recordId", r.ID), elog.FieldErr(err))
			break
		}
		ids = append(ids, r.ID)
	}
	if len(ids) > 0 {
		// 刷新 utime，避免下一轮又把同一批捞出来
		if err = t.records.Touch(ctx, ids); err != nil {
			t.logger.Warn("刷新恢复记录失败", elog.FieldErr(err))
		}
		t.logger.Info("重新入队滞留记录", elog.Int("count", len(ids)))
	}
	// 说明滞留的不多，可以休息一下
	if len(stale) < t.cfg.BatchSize {
		t.sleep(ctx, t.cfg.Interval)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
