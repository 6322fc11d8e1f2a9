package email

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/wneessen/go-mail"
)

var _ provider.Provider = (*SMTP)(nil)

type SMTPConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"fromAddress"`
	FromName    string `json:"fromName"`
	// Encryption ssl_tls / starttls / none
	Encryption string `json:"encryption"`
	// Timeout 秒
	Timeout int `json:"timeout"`
}

type smtpClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// SMTP 通用 SMTP 邮件
type SMTP struct {
	provider.Base
	cfg       SMTPConfig
	newClient func() (smtpClient, error)
}

func NewSMTP() provider.Provider {
	return &SMTP{Base: provider.Base{Name: "SMTP"}}
}

func (s *SMTP) Initialize(configuration string) error {
	var cfg SMTPConfig
	if err := provider.ParseConfig(configuration, &cfg); err != nil {
		return err
	}
	if err := provider.RequireFields(map[string]string{
		"host":        cfg.Host,
		"fromAddress": cfg.FromAddress,
	}); err != nil {
		return err
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}
	s.cfg = cfg
	s.newClient = func() (smtpClient, error) {
		opts := []mail.Option{
			mail.WithPort(cfg.Port),
			mail.WithTimeout(time.Duration(cfg.Timeout) * time.Second),
			mail.WithTLSPolicy(tlsPolicyFromEncryption(cfg.Encryption)),
		}
		if cfg.Encryption == "ssl_tls" {
			opts = append(opts, mail.WithSSL())
		}
		if cfg.Username != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(cfg.Username),
				mail.WithPassword(cfg.Password),
			)
		}
		return mail.NewClient(cfg.Host, opts...)
	}
	return nil
}

func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}

func (s *SMTP) buildMsg(req domain.EmailRequest) (*mail.Msg, error) {
	m := mail.NewMsg()
	var err error
	if s.cfg.FromName != "" {
		err = m.FromFormat(s.cfg.FromName, s.cfg.FromAddress)
	} else {
		err = m.From(s.cfg.FromAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("发件人地址错误: %w", err)
	}
	if err = m.To(req.To); err != nil {
		return nil, fmt.Errorf("收件人地址错误 %q: %w", req.To, err)
	}
	m.Subject(req.Subject)
	m.SetMessageID()
	m.SetDate()
	if req.IsHTML {
		m.SetBodyString(mail.TypeTextHTML, req.Content)
	} else {
		m.SetBodyString(mail.TypeTextPlain, req.Content)
	}
	return m, nil
}

func (s *SMTP) SendEmail(ctx context.Context, req domain.EmailRequest) domain.DeliveryResult {
	if s.newClient == nil {
		return domain.Undelivered("SMTP未配置", "")
	}
	m, err := s.buildMsg(req)
	if err != nil {
		return domain.Undelivered(err.Error(), "")
	}
	c, err := s.newClient()
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("创建SMTP客户端失败: %s", err), "")
	}
	if err = c.DialAndSendWithContext(ctx, m); err != nil {
		return domain.Undelivered(fmt.Sprintf("SMTP发送失败: %s", err), "")
	}
	// SMTP 没有供应商侧的消息ID，用 Message-ID 头
	messageID := ""
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}
	return domain.Delivered(messageID, "")
}

func (s *SMTP) TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult {
	if kind != domain.MessageTypeEmail {
		return s.Unsupported(kind)
	}
	if s.newClient == nil {
		return domain.Undelivered("SMTP未配置", "")
	}
	c, err := s.newClient()
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("创建SMTP客户端失败: %s", err), "")
	}
	if err = c.DialWithContext(ctx); err != nil {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", err), "")
	}
	_ = c.Close()
	return domain.Delivered("", fmt.Sprintf("SMTP服务器 %s:%d 可正常连接", s.cfg.Host, s.cfg.Port))
}
