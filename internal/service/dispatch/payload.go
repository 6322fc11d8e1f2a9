package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"gitee.com/flycash/msgpulse/internal/repository"
	"github.com/ecodeclub/ekit/syncx"
	"github.com/osteele/liquid"
)

const defaultPushTitle = "通知"

// 推送消息里有特殊含义的变量，其余的都放进 extras
const (
	pushVarTitle    = "title"
	pushVarContent  = "content"
	pushVarPlatform = "platform"
)

// PayloadBuilder 把发送记录转换成供应商请求
type PayloadBuilder struct {
	templates repository.EmailTemplateRepository
	engine    *liquid.Engine
	// 模板内容摘要 => *liquid.Template
	parsed syncx.Map[string, *liquid.Template]
}

func NewPayloadBuilder(templates repository.EmailTemplateRepository) *PayloadBuilder {
	return &PayloadBuilder{
		templates: templates,
		engine:    liquid.NewEngine(),
	}
}

func (b *PayloadBuilder) SMS(record domain.MessageRecord) domain.SMSRequest {
	return domain.SMSRequest{
		PhoneNumber:  record.Recipient,
		TemplateCode: record.TemplateCode,
		Variables:    record.Variables,
	}
}

func (b *PayloadBuilder) Email(ctx context.Context, record domain.MessageRecord) (domain.EmailRequest, error) {
	tpl, err := b.templates.GetByCode(ctx, record.TemplateCode)
	if err != nil {
		return domain.EmailRequest{}, err
	}
	if !tpl.Enabled {
		return domain.EmailRequest{}, fmt.Errorf("%w: 模板已停用 code = %s", errs.ErrTemplateNotFound, tpl.Code)
	}
	bindings := make(liquid.Bindings, len(record.Variables))
	for k, v := range record.Variables {
		bindings[k] = v
	}
	subject, err := b.render(tpl.Subject, bindings)
	if err != nil {
		return domain.EmailRequest{}, fmt.Errorf("%w: 渲染邮件标题失败 code = %s, %w", errs.ErrTemplateNotFound, tpl.Code, err)
	}
	content, err := b.render(tpl.Content, bindings)
	if err != nil {
		return domain.EmailRequest{}, fmt.Errorf("%w: 渲染邮件内容失败 code = %s, %w", errs.ErrTemplateNotFound, tpl.Code, err)
	}
	return domain.EmailRequest{
		To:      record.Recipient,
		Subject: subject,
		Content: content,
		IsHTML:  tpl.IsHTML,
	}, nil
}

func (b *PayloadBuilder) Push(record domain.MessageRecord) domain.PushRequest {
	req := domain.PushRequest{
		Target:  record.Recipient,
		Title:   defaultPushTitle,
		Content: record.TemplateCode,
	}
	for k, v := range record.Variables {
		switch k {
		case pushVarTitle:
			if v != "" {
				req.Title = v
			}
		case pushVarContent:
			req.Content = v
		case pushVarPlatform:
			req.Platform = v
		default:
			if req.Extras == nil {
				req.Extras = make(map[string]string)
			}
			req.Extras[k] = v
		}
	}
	return req
}

func (b *PayloadBuilder) render(src string, bindings liquid.Bindings) (string, error) {
	sum := sha256.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])
	tpl, ok := b.parsed.Load(key)
	if !ok {
		var err error
		tpl, err = b.engine.ParseString(src)
		if err != nil {
			return "", err
		}
		b.parsed.Store(key, tpl)
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return out, nil
}
