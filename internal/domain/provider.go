package domain

// ProviderType 供应商类型
type ProviderType string

const (
	ProviderTypeAliyunSMS  ProviderType = "aliyun_sms"
	ProviderTypeTencentSMS ProviderType = "tencent_sms"
	ProviderTypeAWSSES     ProviderType = "aws_ses"
	ProviderTypeSMTP       ProviderType = "smtp"
	ProviderTypeJPush      ProviderType = "jpush"
	ProviderTypeConsole    ProviderType = "console"
)

// Route 路由，把一种消息类型绑定到一个具体的供应商配置上
type Route struct {
	ID           int64
	Name         string
	MessageType  MessageType
	ProviderType ProviderType
	// Configuration 供应商配置，JSON，可能是加密过的
	Configuration string
	// Priority 越小越优先
	Priority int
	Enabled  bool
}

type SMSRequest struct {
	PhoneNumber  string
	TemplateCode string
	Variables    map[string]string
}

type EmailRequest struct {
	To      string
	Subject string
	Content string
	IsHTML  bool
}

type PushRequest struct {
	Target  string
	Title   string
	Content string
	// Platform 为空时由供应商自行推断
	Platform string
	Extras   map[string]string
}

// DeliveryResult 单次投递的结果
type DeliveryResult struct {
	Success           bool
	ProviderMessageID string
	ErrorMessage      string
	RawResponse       string
	// Unsupported 供应商不支持这种消息，重试没有意义
	Unsupported bool
}

func Delivered(messageID, raw string) DeliveryResult {
	return DeliveryResult{Success: true, ProviderMessageID: messageID, RawResponse: raw}
}

func Undelivered(errMsg, raw string) DeliveryResult {
	return DeliveryResult{ErrorMessage: errMsg, RawResponse: raw}
}

// SyncedTemplate 供应商侧的模板
type SyncedTemplate struct {
	Code    string
	Name    string
	Content string
	Status  string
}

// TemplateSyncResult 模板同步结果，Success 为 false 且 ErrorMessage 非空表示不支持或者失败，
// 要与“没有模板”区分开
type TemplateSyncResult struct {
	Success      bool
	Templates    []SyncedTemplate
	ErrorMessage string
}
