package ioc

import (
	"context"

	"gitee.com/flycash/msgpulse/internal/pkg/ratelimit"
	"gitee.com/flycash/msgpulse/internal/service/callback"
	"gitee.com/flycash/msgpulse/internal/service/dispatch"
	"gitee.com/flycash/msgpulse/internal/service/recovery"
	"gitee.com/flycash/msgpulse/internal/service/submit"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

type Task interface {
	Start(ctx context.Context)
}

type App struct {
	Pool         *dispatch.Pool
	Submitter    *submit.Service
	Notifier     *callback.HTTPNotifier
	Recovery     *recovery.Task
	Invalidation *ratelimit.InvalidationListener

	cancel context.CancelFunc
}

func (a *App) tasks() []Task {
	return []Task{a.Recovery, a.Invalidation}
}

// Start 后台任务跟随 ctx，worker 只在 Stop 时退出
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Pool.Start(context.WithoutCancel(ctx))
	for _, t := range a.tasks() {
		go func(t Task) {
			t.Start(ctx)
		}(t)
	}
}

// Stop 先停后台任务，再等 worker 把手上的 job 发完，最后等回调发完
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	var result *multierror.Error
	if err := a.Pool.Stop(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	done := make(chan struct{})
	go func() {
		a.Notifier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		result = multierror.Append(result, ctx.Err())
	}
	if err := result.ErrorOrNil(); err != nil {
		elog.DefaultLogger.Error("停机未完成", elog.FieldErr(err))
		return err
	}
	return nil
}
