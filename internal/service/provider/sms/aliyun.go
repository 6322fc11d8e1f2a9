package sms

import (
	"context"
	"encoding/json"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	"github.com/alibabacloud-go/tea/tea"
)

const (
	aliyunOK              = "OK"
	aliyunDefaultEndpoint = "dysmsapi.aliyuncs.com"
	aliyunDefaultRegion   = "cn-hangzhou"
)

var _ provider.Provider = (*Aliyun)(nil)

type AliyunConfig struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SignName        string `json:"signName"`
	RegionID        string `json:"regionId"`
	Endpoint        string `json:"endpoint"`
}

// aliyunAPI dysmsapi.Client 中用到的部分
type aliyunAPI interface {
	SendSms(request *dysmsapi.SendSmsRequest) (*dysmsapi.SendSmsResponse, error)
	QuerySmsTemplateList(request *dysmsapi.QuerySmsTemplateListRequest) (*dysmsapi.QuerySmsTemplateListResponse, error)
}

// Aliyun 阿里云短信
type Aliyun struct {
	provider.Base
	cfg    AliyunConfig
	client aliyunAPI
}

func NewAliyun() provider.Provider {
	return &Aliyun{Base: provider.Base{Name: "阿里云短信"}}
}

func (a *Aliyun) Initialize(configuration string) error {
	var cfg AliyunConfig
	if err := provider.ParseConfig(configuration, &cfg); err != nil {
		return err
	}
	if err := provider.RequireFields(map[string]string{
		"accessKeyId":     cfg.AccessKeyID,
		"accessKeySecret": cfg.AccessKeySecret,
		"signName":        cfg.SignName,
	}); err != nil {
		return err
	}
	if cfg.RegionID == "" {
		cfg.RegionID = aliyunDefaultRegion
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = aliyunDefaultEndpoint
	}
	client, err := dysmsapi.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		RegionId:        tea.String(cfg.RegionID),
		Endpoint:        tea.String(cfg.Endpoint),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.client = client
	return nil
}

func (a *Aliyun) SendSms(_ context.Context, req domain.SMSRequest) domain.DeliveryResult {
	if a.client == nil {
		return domain.Undelivered("阿里云短信未配置", "")
	}
	templateParam := ""
	if len(req.Variables) > 0 {
		jsonParams, err := json.Marshal(req.Variables)
		if err != nil {
			return domain.Undelivered(fmt.Sprintf("模板参数序列化失败: %s", err), "")
		}
		templateParam = string(jsonParams)
	}
	request := &dysmsapi.SendSmsRequest{
		PhoneNumbers: tea.String(req.PhoneNumber),
		SignName:     tea.String(a.cfg.SignName),
		TemplateCode: tea.String(req.TemplateCode),
	}
	if templateParam != "" {
		request.TemplateParam = tea.String(templateParam)
	}

	response, err := a.client.SendSms(request)
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("阿里云短信发送异常: %s", err), "")
	}
	if response == nil || response.Body == nil {
		return domain.Undelivered("阿里云短信响应为空", "")
	}
	raw := response.Body.String()
	if tea.StringValue(response.Body.Code) != aliyunOK {
		return domain.Undelivered(fmt.Sprintf("阿里云短信发送失败: Code = %s, Message = %s",
			tea.StringValue(response.Body.Code), tea.StringValue(response.Body.Message)), raw)
	}
	return domain.Delivered(tea.StringValue(response.Body.BizId), raw)
}

func (a *Aliyun) TestConnection(_ context.Context, kind domain.MessageType) domain.DeliveryResult {
	if kind != domain.MessageTypeSMS {
		return a.Unsupported(kind)
	}
	if a.client == nil {
		return domain.Undelivered("阿里云短信未配置", "")
	}
	// 查询模板列表只读，不会发短信
	response, err := a.client.QuerySmsTemplateList(&dysmsapi.QuerySmsTemplateListRequest{
		PageIndex: tea.Int32(1),
		PageSize:  tea.Int32(1),
	})
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", err), "")
	}
	if response == nil || response.Body == nil || tea.StringValue(response.Body.Code) != aliyunOK {
		return domain.Undelivered("连接测试失败: 响应异常", "")
	}
	return domain.Delivered("", "阿里云短信API可正常访问")
}

func (a *Aliyun) SyncTemplates(_ context.Context) domain.TemplateSyncResult {
	if a.client == nil {
		return domain.TemplateSyncResult{ErrorMessage: "阿里云短信未配置"}
	}
	const pageSize = 50
	var templates []domain.SyncedTemplate
	for page := int32(1); ; page++ {
		response, err := a.client.QuerySmsTemplateList(&dysmsapi.QuerySmsTemplateListRequest{
			PageIndex: tea.Int32(page),
			PageSize:  tea.Int32(pageSize),
		})
		if err != nil {
			return domain.TemplateSyncResult{ErrorMessage: fmt.Sprintf("同步模板失败: %s", err)}
		}
		if response == nil || response.Body == nil || tea.StringValue(response.Body.Code) != aliyunOK {
			return domain.TemplateSyncResult{ErrorMessage: "同步模板失败: 响应异常"}
		}
		for _, t := range response.Body.SmsTemplateList {
			templates = append(templates, domain.SyncedTemplate{
				Code:    tea.StringValue(t.TemplateCode),
				Name:    tea.StringValue(t.TemplateName),
				Content: tea.StringValue(t.TemplateContent),
				Status:  tea.StringValue(t.AuditStatus),
			})
		}
		if len(response.Body.SmsTemplateList) < pageSize {
			break
		}
	}
	return domain.TemplateSyncResult{Success: true, Templates: templates}
}
