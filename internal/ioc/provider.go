package ioc

import (
	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"gitee.com/flycash/msgpulse/internal/service/provider/console"
	"gitee.com/flycash/msgpulse/internal/service/provider/email"
	"gitee.com/flycash/msgpulse/internal/service/provider/metrics"
	"gitee.com/flycash/msgpulse/internal/service/provider/push"
	"gitee.com/flycash/msgpulse/internal/service/provider/sms"
	"gitee.com/flycash/msgpulse/internal/service/provider/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

// InitProviderRegistry 供应商集合在编译期确定，实例在第一次用到时按路由配置初始化
func InitProviderRegistry() *provider.Registry {
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	return provider.NewRegistry(map[domain.ProviderType]provider.Factory{
		domain.ProviderTypeAliyunSMS:  sms.NewAliyun,
		domain.ProviderTypeTencentSMS: sms.NewTencent,
		domain.ProviderTypeAWSSES:     email.NewSES,
		domain.ProviderTypeSMTP:       email.NewSMTP,
		domain.ProviderTypeJPush:      push.NewJPush,
		domain.ProviderTypeConsole:    console.NewProvider,
	}, collector.Decorator(), tracing.Decorator())
}
