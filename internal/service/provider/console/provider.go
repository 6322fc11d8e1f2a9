// Copyright 2023 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package console

import (
	"context"
	"strconv"
	"sync/atomic"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 把消息输出到日志，本地调试用，所有类型都支持
type Provider struct {
	seq    atomic.Int64
	logger *elog.Component
}

func NewProvider() provider.Provider {
	return &Provider{
		logger: elog.DefaultLogger,
	}
}

func (p *Provider) Initialize(_ string) error {
	return nil
}

func (p *Provider) nextID() string {
	return "console-" + strconv.FormatInt(p.seq.Add(1), 10)
}

func (p *Provider) SendSms(_ context.Context, req domain.SMSRequest) domain.DeliveryResult {
	p.logger.Info("发送短信", elog.String("phone", req.PhoneNumber),
		elog.String("template", req.TemplateCode), elog.Any("variables", req.Variables))
	return domain.Delivered(p.nextID(), "")
}

func (p *Provider) SendEmail(_ context.Context, req domain.EmailRequest) domain.DeliveryResult {
	p.logger.Info("发送邮件", elog.String("to", req.To), elog.String("subject", req.Subject))
	return domain.Delivered(p.nextID(), "")
}

func (p *Provider) SendPush(_ context.Context, req domain.PushRequest) domain.DeliveryResult {
	p.logger.Info("发送推送", elog.String("target", req.Target), elog.String("title", req.Title))
	return domain.Delivered(p.nextID(), "")
}

func (p *Provider) TestConnection(_ context.Context, _ domain.MessageType) domain.DeliveryResult {
	return domain.Delivered("", "console")
}

func (p *Provider) SyncTemplates(_ context.Context) domain.TemplateSyncResult {
	return domain.TemplateSyncResult{Success: true}
}
