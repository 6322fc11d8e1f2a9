package ioc

import (
	"time"

	"gitee.com/flycash/msgpulse/internal/pkg/ratelimit"
	"gitee.com/flycash/msgpulse/internal/repository"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

type rateLimitConfig struct {
	Backend           string `yaml:"backend"`
	RefreshInterval   string `yaml:"refreshInterval"`
	InvalidateChannel string `yaml:"invalidateChannel"`
}

func loadRateLimitConfig() rateLimitConfig {
	var cfg rateLimitConfig
	if err := econf.UnmarshalKey("ratelimit", &cfg); err != nil {
		panic(err)
	}
	if cfg.InvalidateChannel == "" {
		cfg.InvalidateChannel = ratelimit.DefaultInvalidateChannel
	}
	return cfg
}

func InitRateLimitRuleRepository(d dao.RateLimitRuleDAO, rdb redis.Cmdable) repository.RateLimitRuleRepository {
	return repository.NewRateLimitRuleRepository(d, rdb, loadRateLimitConfig().InvalidateChannel)
}

// InitRateLimiter 多实例共享配额时用 redis 窗口
func InitRateLimiter(rules repository.RateLimitRuleRepository, rdb redis.Cmdable) *ratelimit.SlidingWindowLimiter {
	cfg := loadRateLimitConfig()
	var store ratelimit.WindowStore = ratelimit.NewLocalWindowStore()
	if cfg.Backend == "redis" {
		store = ratelimit.NewRedisWindowStore(rdb)
	}
	return ratelimit.NewSlidingWindowLimiter(store, rules,
		parseDuration("ratelimit.refreshInterval", cfg.RefreshInterval, time.Minute))
}

func InitInvalidationListener(client *redis.Client, limiter *ratelimit.SlidingWindowLimiter) *ratelimit.InvalidationListener {
	return ratelimit.NewInvalidationListener(client, loadRateLimitConfig().InvalidateChannel, limiter)
}

func InitRouteRepository(d dao.RouteDAO) repository.RouteRepository {
	return repository.NewRouteRepository(d, parseDuration("route.cacheTTL", econf.GetString("route.cacheTTL"), time.Minute))
}
