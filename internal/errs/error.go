package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter   = errors.New("参数错误")
	ErrRecordNotFound     = errors.New("发送记录不存在")
	ErrRecordIDGenerate   = errors.New("发送记录ID生成失败")
	ErrRecordDuplicate    = errors.New("发送记录主键冲突")
	ErrRecordNotRetryable = errors.New("只有最终失败的记录可以手动重试")
	ErrDuplicateMessage   = errors.New("重复消息，已在去重窗口内发送过")

	ErrPoolStopped = errors.New("工作池已停止")

	// 配置类错误，重试无意义
	ErrRouteNotFound         = errors.New("无可用路由")
	ErrProviderNotConfigured = errors.New("供应商未配置")
	ErrUnknownProvider       = errors.New("未知的供应商类型")
	ErrTemplateNotFound      = errors.New("模板不存在")
	ErrDecryptFailed         = errors.New("配置解密失败")
	ErrUnsupportedChannel    = errors.New("供应商不支持该消息类型")

	ErrSendFailed = errors.New("发送失败")
)

// IsPermanent 配置类错误直接失败，不进入重试
func IsPermanent(err error) bool {
	return errors.Is(err, ErrRouteNotFound) ||
		errors.Is(err, ErrProviderNotConfigured) ||
		errors.Is(err, ErrUnknownProvider) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrUnsupportedChannel)
}
