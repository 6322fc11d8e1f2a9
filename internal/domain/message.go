package domain

import (
	"fmt"
	"strings"
	"time"

	"gitee.com/flycash/msgpulse/internal/errs"
)

// MessageType 消息类型
type MessageType string

const (
	MessageTypeSMS     MessageType = "SMS"      // 短信
	MessageTypeEmail   MessageType = "EMAIL"    // 邮件
	MessageTypeAppPush MessageType = "APP_PUSH" // App推送
)

func (m MessageType) IsValid() bool {
	return m == MessageTypeSMS || m == MessageTypeEmail || m == MessageTypeAppPush
}

// ParseMessageType 不区分大小写
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SMS":
		return MessageTypeSMS, nil
	case "EMAIL":
		return MessageTypeEmail, nil
	case "APP_PUSH", "APPPUSH", "PUSH":
		return MessageTypeAppPush, nil
	default:
		return "", fmt.Errorf("%w: MessageType = %q", errs.ErrInvalidParameter, s)
	}
}

// SendStatus 发送状态
type SendStatus string

const (
	SendStatusPending       SendStatus = "PENDING"        // 已入队，待发送
	SendStatusSending       SendStatus = "SENDING"        // 发送中
	SendStatusSucceeded     SendStatus = "SUCCEEDED"      // 发送成功
	SendStatusAwaitingRetry SendStatus = "AWAITING_RETRY" // 等待重试
	SendStatusFailed        SendStatus = "FAILED"         // 最终失败
)

// IsTerminal 成功和最终失败都是终态
func (s SendStatus) IsTerminal() bool {
	return s == SendStatusSucceeded || s == SendStatusFailed
}

// Job 队列里的工作票据，持久化的 MessageRecord 才是状态的唯一来源
type Job struct {
	RecordID    int64
	TaskID      string
	MessageType MessageType
	// Priority 越小优先级越高，队列是严格 FIFO，目前不参与排序
	Priority   int
	EnqueuedAt time.Time
	RetryCount int
}

// MessageRecord 发送记录
type MessageRecord struct {
	ID           int64
	TaskID       string
	MessageType  MessageType
	TemplateCode string
	Recipient    string
	Variables    map[string]string

	RouteID      int64
	ProviderType ProviderType

	Status            SendStatus
	SendTime          time.Time
	CompleteTime      time.Time
	ProviderMessageID string
	ProviderResponse  string
	FailureReason     string
	RetryCount        int
	Priority          int

	CallbackURL string
	CustomTag   string

	// 多进程部署时的租约
	Owner       string
	LeaseExpire time.Time

	Ctime time.Time
	Utime time.Time
}

func (r MessageRecord) Validate() error {
	if !r.MessageType.IsValid() {
		return fmt.Errorf("%w: MessageType = %q", errs.ErrInvalidParameter, r.MessageType)
	}
	if strings.TrimSpace(r.Recipient) == "" {
		return fmt.Errorf("%w: Recipient 不能为空", errs.ErrInvalidParameter)
	}
	if strings.TrimSpace(r.TemplateCode) == "" {
		return fmt.Errorf("%w: TemplateCode 不能为空", errs.ErrInvalidParameter)
	}
	return nil
}

// Job 生成一张新的工作票据
func (r MessageRecord) Job(now time.Time) Job {
	return Job{
		RecordID:    r.ID,
		TaskID:      r.TaskID,
		MessageType: r.MessageType,
		Priority:    r.Priority,
		EnqueuedAt:  now,
		RetryCount:  r.RetryCount,
	}
}
