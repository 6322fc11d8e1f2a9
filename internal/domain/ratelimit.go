package domain

import (
	"fmt"
	"time"
)

const GlobalScope = "global"

// RouteScope 路由维度的限流 key
func RouteScope(routeID int64) string {
	return fmt.Sprintf("route:%d", routeID)
}

// RateLimitRule 限流规则，0 表示不限制
type RateLimitRule struct {
	ID           int64
	ScopeKey     string
	MaxPerSecond int
	MaxPerMinute int
	MaxPerHour   int
	Enabled      bool
}

// Window 单个子窗口的阈值
type Window struct {
	Name  string
	Size  time.Duration
	Limit int
}

// Windows 按 秒、分、时 的顺序返回配置了阈值的子窗口
func (r RateLimitRule) Windows() []Window {
	res := make([]Window, 0, 3)
	if r.MaxPerSecond > 0 {
		res = append(res, Window{Name: "second", Size: time.Second, Limit: r.MaxPerSecond})
	}
	if r.MaxPerMinute > 0 {
		res = append(res, Window{Name: "minute", Size: time.Minute, Limit: r.MaxPerMinute})
	}
	if r.MaxPerHour > 0 {
		res = append(res, Window{Name: "hour", Size: time.Hour, Limit: r.MaxPerHour})
	}
	return res
}

// AdmitResult 限流判定结果
type AdmitResult struct {
	Allowed           bool
	Reason            string
	RetryAfterSeconds int
}

func Admitted() AdmitResult {
	return AdmitResult{Allowed: true}
}
