// Provider 为供应商实现添加指标收集的装饰器
package metrics

import (
	"context"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector 所有供应商实例共享同一组指标，只注册一次
type Collector struct {
	sendDurationSummary *prometheus.SummaryVec
	sendCounter         *prometheus.CounterVec
	sendStatusCounter   *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	sendDurationSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "msgpulse_provider_send_duration_seconds",
			Help:       "供应商发送消息耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"provider", "type", "status"},
	)

	sendCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msgpulse_provider_send_total",
			Help: "供应商发送消息总数",
		},
		[]string{"provider", "type"},
	)

	sendStatusCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msgpulse_provider_send_status_total",
			Help: "供应商发送消息状态统计",
		},
		[]string{"provider", "type", "status"},
	)

	reg.MustRegister(sendDurationSummary, sendCounter, sendStatusCounter)

	return &Collector{
		sendDurationSummary: sendDurationSummary,
		sendCounter:         sendCounter,
		sendStatusCounter:   sendStatusCounter,
	}
}

// Decorator 给注册表用
func (c *Collector) Decorator() provider.Decorator {
	return func(typ domain.ProviderType, p provider.Provider) provider.Provider {
		return &Provider{Provider: p, name: string(typ), c: c}
	}
}

// Provider 为供应商实现添加指标收集的装饰器
type Provider struct {
	provider.Provider
	name string
	c    *Collector
}

func (p *Provider) observe(typ domain.MessageType, start time.Time, res domain.DeliveryResult) {
	status := "success"
	if !res.Success {
		status = "failure"
	}
	p.c.sendStatusCounter.WithLabelValues(p.name, string(typ), status).Inc()
	p.c.sendDurationSummary.WithLabelValues(p.name, string(typ), status).Observe(time.Since(start).Seconds())
}

func (p *Provider) SendSms(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
	startTime := time.Now()
	p.c.sendCounter.WithLabelValues(p.name, string(domain.MessageTypeSMS)).Inc()
	res := p.Provider.SendSms(ctx, req)
	p.observe(domain.MessageTypeSMS, startTime, res)
	return res
}

func (p *Provider) SendEmail(ctx context.Context, req domain.EmailRequest) domain.DeliveryResult {
	startTime := time.Now()
	p.c.sendCounter.WithLabelValues(p.name, string(domain.MessageTypeEmail)).Inc()
	res := p.Provider.SendEmail(ctx, req)
	p.observe(domain.MessageTypeEmail, startTime, res)
	return res
}

func (p *Provider) SendPush(ctx context.Context, req domain.PushRequest) domain.DeliveryResult {
	startTime := time.Now()
	p.c.sendCounter.WithLabelValues(p.name, string(domain.MessageTypeAppPush)).Inc()
	res := p.Provider.SendPush(ctx, req)
	p.observe(domain.MessageTypeAppPush, startTime, res)
	return res
}
