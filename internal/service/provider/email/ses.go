package email

import (
	"context"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const charsetUTF8 = "UTF-8"

var _ provider.Provider = (*SES)(nil)

type SESConfig struct {
	Region           string `json:"region"`
	AccessKeyID      string `json:"accessKeyId"`
	SecretAccessKey  string `json:"secretAccessKey"`
	FromAddress      string `json:"fromAddress"`
	FromName         string `json:"fromName"`
	ConfigurationSet string `json:"configurationSet"`
	// Endpoint 测试或者私有部署时覆盖默认地址
	Endpoint string `json:"endpoint"`
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
	ListEmailTemplates(ctx context.Context, params *sesv2.ListEmailTemplatesInput, optFns ...func(*sesv2.Options)) (*sesv2.ListEmailTemplatesOutput, error)
}

// SES AWS Simple Email Service v2
type SES struct {
	provider.Base
	cfg    SESConfig
	client sesAPI
}

func NewSES() provider.Provider {
	return &SES{Base: provider.Base{Name: "AWS SES"}}
}

func (s *SES) Initialize(configuration string) error {
	var cfg SESConfig
	if err := provider.ParseConfig(configuration, &cfg); err != nil {
		return err
	}
	if err := provider.RequireFields(map[string]string{
		"region":          cfg.Region,
		"accessKeyId":     cfg.AccessKeyID,
		"secretAccessKey": cfg.SecretAccessKey,
		"fromAddress":     cfg.FromAddress,
	}); err != nil {
		return err
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return fmt.Errorf("加载AWS配置失败: %w", err)
	}
	s.client = sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	s.cfg = cfg
	return nil
}

func (s *SES) from() string {
	if s.cfg.FromName == "" {
		return s.cfg.FromAddress
	}
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
}

func (s *SES) SendEmail(ctx context.Context, req domain.EmailRequest) domain.DeliveryResult {
	if s.client == nil {
		return domain.Undelivered("AWS SES未配置", "")
	}
	body := &types.Body{}
	content := &types.Content{Data: aws.String(req.Content), Charset: aws.String(charsetUTF8)}
	if req.IsHTML {
		body.Html = content
	} else {
		body.Text = content
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from()),
		Destination:      &types.Destination{ToAddresses: []string{req.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Subject), Charset: aws.String(charsetUTF8)},
				Body:    body,
			},
		},
	}
	if s.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("AWS SES发送失败: %s", err), "")
	}
	messageID := aws.ToString(result.MessageId)
	return domain.Delivered(messageID, fmt.Sprintf(`{"messageId":%q}`, messageID))
}

func (s *SES) TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult {
	if kind != domain.MessageTypeEmail {
		return s.Unsupported(kind)
	}
	if s.client == nil {
		return domain.Undelivered("AWS SES未配置", "")
	}
	out, err := s.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", err), "")
	}
	if !out.SendingEnabled {
		return domain.Undelivered("连接测试失败: 账号已暂停发送", "")
	}
	return domain.Delivered("", "AWS SES API可正常访问")
}

func (s *SES) SyncTemplates(ctx context.Context) domain.TemplateSyncResult {
	if s.client == nil {
		return domain.TemplateSyncResult{ErrorMessage: "AWS SES未配置"}
	}
	var templates []domain.SyncedTemplate
	var next *string
	for {
		out, err := s.client.ListEmailTemplates(ctx, &sesv2.ListEmailTemplatesInput{
			NextToken: next,
			PageSize:  aws.Int32(100),
		})
		if err != nil {
			return domain.TemplateSyncResult{ErrorMessage: fmt.Sprintf("同步模板失败: %s", err)}
		}
		for _, t := range out.TemplatesMetadata {
			name := aws.ToString(t.TemplateName)
			templates = append(templates, domain.SyncedTemplate{Code: name, Name: name})
		}
		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		next = out.NextToken
	}
	return domain.TemplateSyncResult{Success: true, Templates: templates}
}
