package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gitee.com/flycash/msgpulse/internal/errs"
)

// ParseConfig 把 JSON 配置解析到 cfg
func ParseConfig(configuration string, cfg any) error {
	if strings.TrimSpace(configuration) == "" {
		return fmt.Errorf("%w: 配置为空", errs.ErrProviderNotConfigured)
	}
	if err := json.Unmarshal([]byte(configuration), cfg); err != nil {
		return fmt.Errorf("%w: 配置格式错误: %w", errs.ErrProviderNotConfigured, err)
	}
	return nil
}

// RequireFields 字段名到值，任意一个为空就返回 ErrProviderNotConfigured
func RequireFields(fields map[string]string) error {
	missing := make([]string, 0, len(fields))
	for name, val := range fields {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: 缺少字段 %s", errs.ErrProviderNotConfigured, strings.Join(missing, ","))
}
