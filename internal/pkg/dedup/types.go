package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
)

const (
	DefaultWindow        = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

type Guard interface {
	// IsDuplicate 窗口内是否已经发送过相同的请求
	IsDuplicate(ctx context.Context, req Request) (bool, error)
	// Record 标记请求已发送，窗口从此刻开始
	Record(ctx context.Context, req Request) error
	// Clear 显式删除，手动重试时用来绕过去重
	Clear(ctx context.Context, req Request) error
}

// Request 参与去重的字段，接收者、模板和变量都要参与，否则会误杀不同的消息
type Request struct {
	MessageType  domain.MessageType
	Recipient    string
	TemplateCode string
	Variables    map[string]string
}

func FromRecord(r domain.MessageRecord) Request {
	return Request{
		MessageType:  r.MessageType,
		Recipient:    r.Recipient,
		TemplateCode: r.TemplateCode,
		Variables:    r.Variables,
	}
}

type canonical struct {
	MessageType  string            `json:"messageType"`
	Recipient    string            `json:"recipient"`
	TemplateCode string            `json:"templateCode"`
	Variables    map[string]string `json:"variables"`
}

// Key 稳定的内容哈希。json 序列化 map 时按 key 排序，所以变量顺序不影响结果。
// 只有类型和接收者做了大小写归一，模板和变量保持原样。
func Key(req Request) string {
	vars := req.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	data, _ := json.Marshal(canonical{
		MessageType:  strings.ToLower(string(req.MessageType)),
		Recipient:    strings.ToLower(strings.TrimSpace(req.Recipient)),
		TemplateCode: req.TemplateCode,
		Variables:    vars,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
