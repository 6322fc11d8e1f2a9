package main

import (
	"context"
	"time"

	"gitee.com/flycash/msgpulse/cmd/platform/ioc"
	prodioc "gitee.com/flycash/msgpulse/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server/egovernor"
	"go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		app *prodioc.App
		tp  *trace.TracerProvider
	)
	// ego.New 会加载配置，所有初始化都要放在它之后
	e := ego.New(ego.WithBeforeStopClean(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if app != nil {
			if err := app.Stop(ctx); err != nil {
				elog.Error("停止发送任务失败", elog.FieldErr(err))
			}
		}
		if tp != nil {
			return tp.Shutdown(ctx)
		}
		return nil
	}))

	// 初始化trace
	tp = prodioc.InitZipkinTracer()
	app = ioc.InitApp()
	app.Start(context.Background())

	if err := e.Serve(
		egovernor.Load("server.governor").Build(),
	).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
