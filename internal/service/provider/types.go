package provider

import (
	"context"

	"gitee.com/flycash/msgpulse/internal/domain"
)

// Provider 供应商接口。供应商内部的异常都转换成失败的 DeliveryResult，不会向上抛
//
//go:generate mockgen -source=./types.go -destination=./mocks/provider.mock.go -package=providermocks Provider
type Provider interface {
	// Initialize 解析供应商配置，重复调用是安全的
	Initialize(configuration string) error
	SendSms(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult
	SendEmail(ctx context.Context, req domain.EmailRequest) domain.DeliveryResult
	SendPush(ctx context.Context, req domain.PushRequest) domain.DeliveryResult
	// TestConnection 连通性探测，不会给真实用户发消息
	TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult
	// SyncTemplates 拉取供应商侧的模板，不支持时返回失败而不是空列表
	SyncTemplates(ctx context.Context) domain.TemplateSyncResult
}

// Factory 每次调用返回一个未初始化的新实例
type Factory func() Provider

// Decorator 在实例初始化之后包一层，比如指标和链路追踪
type Decorator func(typ domain.ProviderType, p Provider) Provider
