package provider

import (
	"context"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/domain"
)

// Base 提供默认实现，具体供应商只需要覆盖自己支持的方法
type Base struct {
	Name string
}

func (b Base) Unsupported(kind domain.MessageType) domain.DeliveryResult {
	return domain.DeliveryResult{
		ErrorMessage: fmt.Sprintf("%s 不支持 %s 类型的消息", b.Name, kind),
		Unsupported:  true,
	}
}

func (b Base) SendSms(_ context.Context, _ domain.SMSRequest) domain.DeliveryResult {
	return b.Unsupported(domain.MessageTypeSMS)
}

func (b Base) SendEmail(_ context.Context, _ domain.EmailRequest) domain.DeliveryResult {
	return b.Unsupported(domain.MessageTypeEmail)
}

func (b Base) SendPush(_ context.Context, _ domain.PushRequest) domain.DeliveryResult {
	return b.Unsupported(domain.MessageTypeAppPush)
}

func (b Base) TestConnection(_ context.Context, kind domain.MessageType) domain.DeliveryResult {
	return b.Unsupported(kind)
}

func (b Base) SyncTemplates(_ context.Context) domain.TemplateSyncResult {
	return domain.TemplateSyncResult{ErrorMessage: fmt.Sprintf("%s 未实现模板同步", b.Name)}
}
