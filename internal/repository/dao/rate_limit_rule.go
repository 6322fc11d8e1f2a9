package dao

import (
	"context"
	"time"

	"github.com/ego-component/egorm"
	"gorm.io/gorm/clause"
)

type RateLimitRuleDAO interface {
	List(ctx context.Context) ([]RateLimitRule, error)
	// Upsert 以 scope_key 为准，存在则更新
	Upsert(ctx context.Context, rule RateLimitRule) error
}

// RateLimitRule 限流规则表，一个 scope 最多一条
type RateLimitRule struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	ScopeKey     string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uk_scope_key;comment:'global 或者 route:<id>'"`
	MaxPerSecond int    `gorm:"NOT NULL;DEFAULT:0;comment:'0 表示不限制'"`
	MaxPerMinute int    `gorm:"NOT NULL;DEFAULT:0"`
	MaxPerHour   int    `gorm:"NOT NULL;DEFAULT:0"`
	Enabled      bool   `gorm:"NOT NULL;DEFAULT:true"`
	Ctime        int64
	Utime        int64
}

type rateLimitRuleDAO struct {
	db *egorm.Component
}

func NewRateLimitRuleDAO(db *egorm.Component) RateLimitRuleDAO {
	return &rateLimitRuleDAO{db: db}
}

func (d *rateLimitRuleDAO) List(ctx context.Context) ([]RateLimitRule, error) {
	var res []RateLimitRule
	err := d.db.WithContext(ctx).Find(&res).Error
	return res, err
}

func (d *rateLimitRuleDAO) Upsert(ctx context.Context, rule RateLimitRule) error {
	now := time.Now().UnixMilli()
	rule.Ctime, rule.Utime = now, now
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"max_per_second", "max_per_minute", "max_per_hour", "enabled", "utime",
		}),
	}).Create(&rule).Error
}
