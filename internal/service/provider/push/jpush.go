package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	jpushDefaultEndpoint = "https://api.jpush.cn"
	jpushTimeToLive      = 3600
	jpushTestTag         = "__msgpulse_test__"
)

// 认证通过但是没有推送目标
var jpushNoTargetCodes = map[int]bool{1003: true, 1011: true, 1020: true}

var _ provider.Provider = (*JPush)(nil)

type JPushConfig struct {
	AppKey         string `json:"appKey"`
	MasterSecret   string `json:"masterSecret"`
	APNsProduction bool   `json:"apnsProduction"`
	Endpoint       string `json:"endpoint"`
}

// JPush 极光推送 REST API v3
type JPush struct {
	provider.Base
	cfg    JPushConfig
	client *http.Client
}

func NewJPush() provider.Provider {
	return &JPush{Base: provider.Base{Name: "极光推送"}}
}

func (j *JPush) Initialize(configuration string) error {
	var cfg JPushConfig
	if err := provider.ParseConfig(configuration, &cfg); err != nil {
		return err
	}
	if err := provider.RequireFields(map[string]string{
		"appKey":       cfg.AppKey,
		"masterSecret": cfg.MasterSecret,
	}); err != nil {
		return err
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = jpushDefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	j.cfg = cfg
	j.client = &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return nil
}

type jpushPayload struct {
	Platform     any               `json:"platform"`
	Audience     any               `json:"audience"`
	Notification jpushNotification `json:"notification"`
	Options      jpushOptions      `json:"options"`
}

type jpushNotification struct {
	Alert   string        `json:"alert"`
	Android *jpushAndroid `json:"android,omitempty"`
	IOS     *jpushIOS     `json:"ios,omitempty"`
}

type jpushAndroid struct {
	Alert  string            `json:"alert"`
	Title  string            `json:"title,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

type jpushIOS struct {
	Alert  string            `json:"alert"`
	Sound  string            `json:"sound"`
	Badge  string            `json:"badge"`
	Extras map[string]string `json:"extras,omitempty"`
}

type jpushOptions struct {
	TimeToLive     int  `json:"time_to_live"`
	APNsProduction bool `json:"apns_production"`
}

type jpushResponse struct {
	SendNo string `json:"sendno"`
	MsgID  string `json:"msg_id"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func platformOf(p string) any {
	switch strings.ToLower(p) {
	case "ios":
		return []string{"ios"}
	case "android":
		return []string{"android"}
	default:
		return "all"
	}
}

// audienceOf 含有 @ 的目标视为别名，否则是 registration id
func audienceOf(target string) map[string][]string {
	if strings.Contains(target, "@") {
		return map[string][]string{"alias": {target}}
	}
	return map[string][]string{"registration_id": {target}}
}

func (j *JPush) buildPayload(req domain.PushRequest) jpushPayload {
	return jpushPayload{
		Platform: platformOf(req.Platform),
		Audience: audienceOf(req.Target),
		Notification: jpushNotification{
			Alert:   req.Content,
			Android: &jpushAndroid{Alert: req.Content, Title: req.Title, Extras: req.Extras},
			IOS:     &jpushIOS{Alert: req.Content, Sound: "default", Badge: "+1", Extras: req.Extras},
		},
		Options: jpushOptions{TimeToLive: jpushTimeToLive, APNsProduction: j.cfg.APNsProduction},
	}
}

func (j *JPush) post(ctx context.Context, path string, payload jpushPayload) (jpushResponse, string, error) {
	var resp jpushResponse
	body, err := json.Marshal(payload)
	if err != nil {
		return resp, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.cfg.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return resp, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(j.cfg.AppKey, j.cfg.MasterSecret)
	httpResp, err := j.client.Do(req)
	if err != nil {
		return resp, "", err
	}
	defer httpResp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
	if err != nil {
		return resp, "", err
	}
	if err = json.Unmarshal(raw, &resp); err != nil {
		return resp, string(raw), fmt.Errorf("HTTP %d: 响应格式错误: %w", httpResp.StatusCode, err)
	}
	if resp.Error == nil && httpResp.StatusCode != http.StatusOK {
		return resp, string(raw), fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}
	return resp, string(raw), nil
}

func (j *JPush) SendPush(ctx context.Context, req domain.PushRequest) domain.DeliveryResult {
	if j.client == nil {
		return domain.Undelivered("极光推送未配置", "")
	}
	resp, raw, err := j.post(ctx, "/v3/push", j.buildPayload(req))
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("极光推送发送失败: %s", err), raw)
	}
	if resp.Error != nil {
		return domain.Undelivered(fmt.Sprintf("极光推送API异常: Code = %d, Message = %s",
			resp.Error.Code, resp.Error.Message), raw)
	}
	return domain.Delivered(resp.MsgID, raw)
}

// TestConnection 调用 validate 接口，只校验不下发
func (j *JPush) TestConnection(ctx context.Context, kind domain.MessageType) domain.DeliveryResult {
	if kind != domain.MessageTypeAppPush {
		return j.Unsupported(kind)
	}
	if j.client == nil {
		return domain.Undelivered("极光推送未配置", "")
	}
	payload := jpushPayload{
		Platform:     "all",
		Audience:     map[string][]string{"tag": {jpushTestTag}},
		Notification: jpushNotification{Alert: "test"},
		Options:      jpushOptions{TimeToLive: 0, APNsProduction: j.cfg.APNsProduction},
	}
	resp, _, err := j.post(ctx, "/v3/push/validate", payload)
	if err != nil {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", err), "")
	}
	if resp.Error != nil && !jpushNoTargetCodes[resp.Error.Code] {
		return domain.Undelivered(fmt.Sprintf("连接测试失败: %s", resp.Error.Message), "")
	}
	return domain.Delivered("", "极光推送API可正常访问")
}
