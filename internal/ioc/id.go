package ioc

import (
	"time"

	"github.com/gotomicro/ego/core/econf"
	"github.com/sony/sonyflake"
)

func InitIDGenerator() *sonyflake.Sonyflake {
	settings := sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// 容器里拿不到私有 IP 时，用配置指定机器号
	if id := econf.GetInt("id.machineId"); id > 0 {
		settings.MachineID = func() (uint16, error) {
			return uint16(id), nil
		}
	}
	sf := sonyflake.NewSonyflake(settings)
	if sf == nil {
		panic("初始化 ID 生成器失败")
	}
	return sf
}
