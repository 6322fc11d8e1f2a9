package ioc

import (
	"gitee.com/flycash/msgpulse/internal/pkg/crypto"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

const devEncryptKey = "msgpulse-dev-key-do-not-use-in-prod"

// InitCipher 供应商配置的加解密
func InitCipher() *crypto.Cipher {
	key := econf.GetString("crypto.key")
	if key == "" {
		elog.DefaultLogger.Warn("没有配置 crypto.key，使用开发环境密钥")
		key = devEncryptKey
	}
	c, err := crypto.NewCipher(key)
	if err != nil {
		panic(err)
	}
	return c
}
