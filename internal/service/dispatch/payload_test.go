//go:build unit

package dispatch

import (
	"context"
	"testing"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"github.com/osteele/liquid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTemplates map[string]domain.EmailTemplate

func (f fixedTemplates) GetByCode(_ context.Context, code string) (domain.EmailTemplate, error) {
	tpl, ok := f[code]
	if !ok {
		return domain.EmailTemplate{}, errs.ErrTemplateNotFound
	}
	return tpl, nil
}

func TestPayloadBuilder_Email(t *testing.T) {
	t.Parallel()

	b := NewPayloadBuilder(fixedTemplates{
		"welcome": {
			Code:    "welcome",
			Subject: "欢迎 {{name}}",
			Content: "<p>你好 {{ name }}，验证码 {{code}}</p>",
			IsHTML:  true,
			Enabled: true,
		},
		"off": {Code: "off", Subject: "x", Content: "y"},
		"bad": {Code: "bad", Subject: "{% if %}", Content: "y", Enabled: true},
	})

	testCases := []struct {
		name    string
		code    string
		want    domain.EmailRequest
		wantErr error
	}{
		{
			name: "渲染标题和内容",
			code: "welcome",
			want: domain.EmailRequest{
				To:      "a@example.com",
				Subject: "欢迎 Tom",
				Content: "<p>你好 Tom，验证码 1234</p>",
				IsHTML:  true,
			},
		},
		{name: "模板不存在", code: "missing", wantErr: errs.ErrTemplateNotFound},
		{name: "模板已停用", code: "off", wantErr: errs.ErrTemplateNotFound},
		{name: "模板语法错误", code: "bad", wantErr: errs.ErrTemplateNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req, err := b.Email(t.Context(), domain.MessageRecord{
				TemplateCode: tc.code,
				Recipient:    "a@example.com",
				Variables:    map[string]string{"name": "Tom", "code": "1234"},
			})
			assert.ErrorIs(t, err, tc.wantErr)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, req)
		})
	}
}

func TestPayloadBuilder_ParseOnce(t *testing.T) {
	t.Parallel()

	b := NewPayloadBuilder(fixedTemplates{
		"welcome": {Code: "welcome", Subject: "欢迎 {{name}}", Content: "你好 {{name}}", Enabled: true},
	})
	for _, name := range []string{"Tom", "Jerry"} {
		req, err := b.Email(t.Context(), domain.MessageRecord{
			TemplateCode: "welcome",
			Recipient:    "a@example.com",
			Variables:    map[string]string{"name": name},
		})
		require.NoError(t, err)
		assert.Equal(t, "欢迎 "+name, req.Subject)
	}
	n := 0
	b.parsed.Range(func(_ string, _ *liquid.Template) bool {
		n++
		return true
	})
	assert.Equal(t, 2, n)
}

func TestPayloadBuilder_Push(t *testing.T) {
	t.Parallel()

	b := NewPayloadBuilder(fixedTemplates{})
	testCases := []struct {
		name string
		vars map[string]string
		want domain.PushRequest
	}{
		{
			name: "没有变量时使用默认标题",
			want: domain.PushRequest{Target: "reg-1", Title: "通知", Content: "promo"},
		},
		{
			name: "变量覆盖标题内容和平台，其余进 extras",
			vars: map[string]string{"title": "活动", "content": "五折", "platform": "ios", "orderId": "42"},
			want: domain.PushRequest{
				Target:   "reg-1",
				Title:    "活动",
				Content:  "五折",
				Platform: "ios",
				Extras:   map[string]string{"orderId": "42"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := b.Push(domain.MessageRecord{Recipient: "reg-1", TemplateCode: "promo", Variables: tc.vars})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPayloadBuilder_SMS(t *testing.T) {
	t.Parallel()
	b := NewPayloadBuilder(fixedTemplates{})
	got := b.SMS(domain.MessageRecord{Recipient: "+15550001", TemplateCode: "OTP", Variables: map[string]string{"code": "1"}})
	assert.Equal(t, domain.SMSRequest{PhoneNumber: "+15550001", TemplateCode: "OTP", Variables: map[string]string{"code": "1"}}, got)
}
