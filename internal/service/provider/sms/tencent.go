package sms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tcsms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

const (
	tencentOK            = "Ok"
	tencentDefaultRegion = "ap-guangzhou"
)

var _ provider.Provider = (*Tencent)(nil)

type TencentConfig struct {
	SecretID  string `json:"secretId"`
	SecretKey string `json:"secretKey"`
	SDKAppID  string `json:"sdkAppId"`
	SignName  string `json:"signName"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
}

type tencentAPI interface {
	SendSmsWithContext(ctx context.Context, request *tcsms.SendSmsRequest) (*tcsms.SendSmsResponse, error)
	DescribeSmsTemplateListWithContext(ctx context.Context, request *tcsms.DescribeSmsTemplateListRequest) (*tcsms.DescribeSmsTemplateListResponse, error)
}

// Tencent 腾讯云短信，模板参数是按位置填充的
type Tencent struct {
	provider.Base
	cfg    TencentConfig
	client tencentAPI
}

func NewTencent() provider.Provider {
	return &Tencent{Base: provider.Base{Name: "腾讯云短信"}}
}

func (t *Tencent) Initialize(configuration string) error {
	var cfg TencentConfig
	if err := provider.ParseConfig(configuration, &cfg); err != nil {
		return err
	}
	if err := provider.RequireFields(map[string]string{
		"secretId":  cfg.SecretID,
		"secretKey": cfg.SecretKey,
		"sdkAppId":  cfg.SDKAppID,
		"signName":  cfg.SignName,
	}); err != nil {
		return err
	}
	if cfg.Region == "" {
		cfg.Region = tencentDefaultRegion
	}
	cpf := profile.NewClientProfile()
	if cfg.Endpoint != "" {
		cpf.HttpProfile.Endpoint = cfg.Endpoint
	}
	client, err := tcsms.NewClient(common.NewCredential(cfg.SecretID, cfg.SecretKey), cfg.Region, cpf)
	if err != nil {
		return err
	}
	t.cfg = cfg
	t.client = client
	return nil
}

// templateParams 按变量名排序后取值，模板里的 {1} {2} 依次对应
func templateParams(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, erri := strconv.Atoi(keys[i])
		nj, errj := strconv.Atoi(keys[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, vars[k])
	}
	return res
}

func (t *Tencent) SendSms(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
	if t.client == nil {
		return domain.Undelivered("腾讯云短信未配置", "")
	}
	request := tcsms.NewSendSmsRequest()
	request.SmsSdkAppId = common.StringPtr(t.cfg.SDKAppID)
	request.SignName = common.StringPtr(t.cfg.SignName)
	request.TemplateId = common.StringPtr(req.TemplateCode)
	request.PhoneNumberSet = common.StringPtrs([]string{req.PhoneNumber})
	if len(req.Variables) > 0 {
		request.TemplateParamSet = common.StringPtrs(templateParams(req.Variables))
	}

	response, err := t.client.SendSmsWithContext(ctx, request)
	if err != nil {
		var sdkErr *tcerrors.TencentCloudSDKError
		if errors.As(err, &sdkErr) {
			return domain.Undelivered(fmt.Sprintf("腾讯云短信API异常: Code = %s, Message = %s",
				sdkErr.GetCode(), sdkErr.GetMessage()), sdkErr.Error())
		}
		return domain.Undelivered(fmt.Sprintf("腾讯云短信发送异常: %s", err), "")
	}
	if response == nil || response.Response == nil || len(response.Response.SendStatusSet) == 0 {
		return domain.Undelivered("腾讯云短信响应为空", "")
	}
	raw := response.ToJsonString()
	status := response.Response.SendStatusSet[0]
	if deref(status.Code) != tencentOK {
		return domain.Undelivered(fmt.Sprintf("腾讯云短信发送失败: Code = %s, Message = %s",
			deref(status.Code), deref(status.Message)), raw)
	}
	return domain.Delivered(deref(status.SerialNo), raw)
}

func (t *Tencent) describeTemplates(ctx context.Context, offset, limit uint64) (*tcsms.DescribeSmsTemplateListResponse, error) {
	request := tcsms.NewDescribeSmsTemplateListRequest()
	request.International = common.Uint64Ptr(0)
	request.Offset = common.Uint64Ptr(offset)
	request.Limit = common.Uint64Ptr(limit)
	return t.client.DescribeSmsTemplateListWithContext(ctx, request)
}

func (t *Tencent) TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult {
	if kind != domain.MessageTypeSMS {
		return t.Unsupported(kind)
	}
	if t.client == nil {
		return domain.Undelivered("腾讯云短信未配置", "")
	}
	if _, err := t.describeTemplates(ctx, 0, 1); err != nil {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", err), "")
	}
	return domain.Delivered("", "腾讯云短信API可正常访问")
}

func (t *Tencent) SyncTemplates(ctx context.Context) domain.TemplateSyncResult {
	if t.client == nil {
		return domain.TemplateSyncResult{ErrorMessage: "腾讯云短信未配置"}
	}
	const limit = 100
	var templates []domain.SyncedTemplate
	for offset := uint64(0); ; offset += limit {
		response, err := t.describeTemplates(ctx, offset, limit)
		if err != nil {
			return domain.TemplateSyncResult{ErrorMessage: fmt.Sprintf("同步模板失败: %s", err)}
		}
		if response == nil || response.Response == nil {
			return domain.TemplateSyncResult{ErrorMessage: "同步模板失败: 响应为空"}
		}
		set := response.Response.DescribeTemplateStatusSet
		for _, s := range set {
			templates = append(templates, domain.SyncedTemplate{
				Code:    strconv.FormatUint(deref(s.TemplateId), 10),
				Name:    deref(s.TemplateName),
				Content: deref(s.TemplateContent),
				Status:  strconv.FormatInt(deref(s.StatusCode), 10),
			})
		}
		if len(set) < limit {
			break
		}
	}
	return domain.TemplateSyncResult{Success: true, Templates: templates}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
