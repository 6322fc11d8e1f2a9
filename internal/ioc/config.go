package ioc

import (
	"fmt"
	"time"
)

// econf 读出来的时长是字符串，比如 "5s"、"1m"
func parseDuration(key, val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Errorf("配置 %s 不是合法的时长 %q: %w", key, val, err))
	}
	return d
}

func parseDurations(key string, vals []string, def []time.Duration) []time.Duration {
	if len(vals) == 0 {
		return def
	}
	res := make([]time.Duration, 0, len(vals))
	for i, v := range vals {
		res = append(res, parseDuration(fmt.Sprintf("%s[%d]", key, i), v, 0))
	}
	return res
}
