package tracing

import (
	"context"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider 为供应商实现添加链路追踪的装饰器
type Provider struct {
	provider.Provider
	name   string
	tracer trace.Tracer
}

// Decorator 给注册表用
func Decorator() provider.Decorator {
	return func(typ domain.ProviderType, p provider.Provider) provider.Provider {
		return NewProvider(string(typ), p)
	}
}

// NewProvider 创建一个新的带有链路追踪的供应商
func NewProvider(name string, p provider.Provider) *Provider {
	return &Provider{
		Provider: p,
		name:     name,
		tracer:   otel.Tracer("msgpulse/provider"),
	}
}

func (p *Provider) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("provider.type", p.name))
	return p.tracer.Start(ctx, "Provider."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, res domain.DeliveryResult) {
	defer span.End()
	if !res.Success {
		span.SetStatus(codes.Error, res.ErrorMessage)
		return
	}
	span.SetAttributes(attribute.String("provider.message_id", res.ProviderMessageID))
}

func (p *Provider) SendSms(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
	ctx, span := p.start(ctx, "SendSms", attribute.String("message.template", req.TemplateCode))
	res := p.Provider.SendSms(ctx, req)
	finish(span, res)
	return res
}

func (p *Provider) SendEmail(ctx context.Context, req domain.EmailRequest) domain.DeliveryResult {
	ctx, span := p.start(ctx, "SendEmail")
	res := p.Provider.SendEmail(ctx, req)
	finish(span, res)
	return res
}

func (p *Provider) SendPush(ctx context.Context, req domain.PushRequest) domain.DeliveryResult {
	ctx, span := p.start(ctx, "SendPush", attribute.String("push.platform", req.Platform))
	res := p.Provider.SendPush(ctx, req)
	finish(span, res)
	return res
}

func (p *Provider) TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult {
	ctx, span := p.start(ctx, "TestConnection", attribute.String("message.type", string(kind)))
	res := p.Provider.TestConnection(ctx, kind)
	finish(span, res)
	return res
}
