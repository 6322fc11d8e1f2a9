package ioc

import (
	"gitee.com/flycash/msgpulse/internal/pkg/dedup"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

// InitDedupGuard 多实例部署时用 redis，否则各个实例各自去重
func InitDedupGuard(rdb redis.Cmdable) dedup.Guard {
	type Config struct {
		Backend       string `yaml:"backend"`
		Window        string `yaml:"window"`
		SweepInterval string `yaml:"sweepInterval"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("dedup", &cfg); err != nil {
		panic(err)
	}
	window := parseDuration("dedup.window", cfg.Window, dedup.DefaultWindow)
	if cfg.Backend == "redis" {
		return dedup.NewRedisGuard(rdb, window)
	}
	return dedup.NewLocalGuard(window, parseDuration("dedup.sweepInterval", cfg.SweepInterval, dedup.DefaultSweepInterval))
}
