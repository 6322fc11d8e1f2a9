//go:build wireinject

package ioc

import (
	"gitee.com/flycash/msgpulse/internal/ioc"
	"gitee.com/flycash/msgpulse/internal/repository"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
	"gitee.com/flycash/msgpulse/internal/service/dispatch"
	"gitee.com/flycash/msgpulse/internal/service/submit"
	"github.com/google/wire"
	"github.com/sony/sonyflake"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitRedisCmd,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitCipher,
	)
	repositorySet = wire.NewSet(
		dao.NewMessageRecordDAO,
		dao.NewRouteDAO,
		dao.NewRateLimitRuleDAO,
		dao.NewEmailTemplateDAO,
		repository.NewMessageRecordRepository,
		repository.NewEmailTemplateRepository,
		ioc.InitRouteRepository,
		ioc.InitRateLimitRuleRepository,
	)
	dispatchSet = wire.NewSet(
		ioc.InitQueue,
		ioc.InitProviderRegistry,
		ioc.InitRateLimiter,
		ioc.InitInvalidationListener,
		ioc.InitCallbackNotifier,
		dispatch.NewPayloadBuilder,
		ioc.InitPool,
	)
	submitSet = wire.NewSet(
		ioc.InitDedupGuard,
		submit.NewRouteResolver,
		submit.NewService,
		wire.Bind(new(submit.Enqueuer), new(*dispatch.Pool)),
		wire.Bind(new(submit.IDGenerator), new(*sonyflake.Sonyflake)),
	)
)

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,
		repositorySet,

		// 发送
		dispatchSet,
		submitSet,
		ioc.InitRecoveryTask,

		wire.Struct(new(ioc.App), "Pool", "Submitter", "Notifier", "Recovery", "Invalidation"),
	)
	return new(ioc.App)
}
