package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/gotomicro/ego/core/elog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 10 * time.Second

// Notifier 通知业务方发送状态的变化
type Notifier interface {
	// Notify 不阻塞调用方，失败只记日志
	Notify(ctx context.Context, record domain.MessageRecord)
}

// Payload 回调请求体，还没有发生的时间和失败原因是 null
type Payload struct {
	TaskID        string  `json:"taskId"`
	MessageType   string  `json:"messageType"`
	TemplateCode  string  `json:"templateCode"`
	Recipient     string  `json:"recipient"`
	SendStatus    string  `json:"sendStatus"`
	SendTime      *int64  `json:"sendTime"`
	CompleteTime  *int64  `json:"completeTime"`
	FailureReason *string `json:"failureReason"`
	RetryCount    int     `json:"retryCount"`
	Timestamp     int64   `json:"timestamp"`
}

func NewPayload(record domain.MessageRecord, now time.Time) Payload {
	p := Payload{
		TaskID:       record.TaskID,
		MessageType:  string(record.MessageType),
		TemplateCode: record.TemplateCode,
		Recipient:    record.Recipient,
		SendStatus:   string(record.Status),
		RetryCount:   record.RetryCount,
		Timestamp:    now.UnixMilli(),
	}
	if !record.SendTime.IsZero() {
		p.SendTime = millis(record.SendTime)
	}
	if !record.CompleteTime.IsZero() {
		p.CompleteTime = millis(record.CompleteTime)
	}
	if record.FailureReason != "" {
		reason := record.FailureReason
		p.FailureReason = &reason
	}
	return p
}

func millis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

// HTTPNotifier 向记录上的 CallbackURL 发 POST 请求
type HTTPNotifier struct {
	client  *http.Client
	timeout time.Duration
	logger  *elog.Component
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewHTTPNotifier(timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPNotifier{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		timeout: timeout,
		logger:  elog.DefaultLogger,
		now:     time.Now,
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, record domain.MessageRecord) {
	if record.CallbackURL == "" {
		return
	}
	payload := NewPayload(record, n.now())
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// 不跟随调用方的 ctx 取消，只保留链路信息
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.post(sendCtx, record.CallbackURL, payload); err != nil {
			n.logger.Warn("回调业务方失败",
				elog.String("taskId", record.TaskID),
				elog.String("url", record.CallbackURL),
				elog.String("status", payload.SendStatus),
				elog.FieldErr(err))
		}
	}()
}

func (n *HTTPNotifier) post(ctx context.Context, url string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("回调返回状态码 %d", resp.StatusCode)
	}
	return nil
}

// Wait 等待所有已经发出的回调结束，停机时使用
func (n *HTTPNotifier) Wait() {
	n.wg.Wait()
}
