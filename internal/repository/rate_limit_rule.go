package repository

import (
	"context"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/pkg/ratelimit"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

// RateLimitRuleRepository 同时是限流器的规则来源
type RateLimitRuleRepository interface {
	ratelimit.RuleSource
	// Save 写入之后广播失效通知
	Save(ctx context.Context, rule domain.RateLimitRule) error
}

type rateLimitRuleRepository struct {
	dao     dao.RateLimitRuleDAO
	rdb     redis.Cmdable
	channel string
	logger  *elog.Component
}

func NewRateLimitRuleRepository(d dao.RateLimitRuleDAO, rdb redis.Cmdable, channel string) RateLimitRuleRepository {
	return &rateLimitRuleRepository{
		dao:     d,
		rdb:     rdb,
		channel: channel,
		logger:  elog.DefaultLogger,
	}
}

func (r *rateLimitRuleRepository) ListRules(ctx context.Context) ([]domain.RateLimitRule, error) {
	entities, err := r.dao.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]domain.RateLimitRule, 0, len(entities))
	for _, e := range entities {
		res = append(res, domain.RateLimitRule{
			ID:           e.ID,
			ScopeKey:     e.ScopeKey,
			MaxPerSecond: e.MaxPerSecond,
			MaxPerMinute: e.MaxPerMinute,
			MaxPerHour:   e.MaxPerHour,
			Enabled:      e.Enabled,
		})
	}
	return res, nil
}

func (r *rateLimitRuleRepository) Save(ctx context.Context, rule domain.RateLimitRule) error {
	err := r.dao.Upsert(ctx, dao.RateLimitRule{
		ScopeKey:     rule.ScopeKey,
		MaxPerSecond: rule.MaxPerSecond,
		MaxPerMinute: rule.MaxPerMinute,
		MaxPerHour:   rule.MaxPerHour,
		Enabled:      rule.Enabled,
	})
	if err != nil {
		return err
	}
	if r.rdb == nil {
		return nil
	}
	// 通知失败不影响写入，最迟一个刷新周期后生效
	if err = ratelimit.Publish(ctx, r.rdb, r.channel, rule.ScopeKey); err != nil {
		r.logger.Warn("广播限流规则变更失败", elog.String("scope", rule.ScopeKey), elog.FieldErr(err))
	}
	return nil
}
