package dao

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/msgpulse/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type RouteDAO interface {
	GetByID(ctx context.Context, id int64) (Route, error)
	// ListActiveByType 按优先级升序
	ListActiveByType(ctx context.Context, messageType string) ([]Route, error)
}

// Route 路由表
type Route struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"type:VARCHAR(128);NOT NULL"`
	MessageType   string `gorm:"type:ENUM('SMS','EMAIL','APP_PUSH');NOT NULL;index:idx_type_priority,priority:1"`
	ProviderType  string `gorm:"type:VARCHAR(32);NOT NULL"`
	Configuration string `gorm:"type:TEXT;comment:'供应商配置，可能已加密'"`
	Priority      int    `gorm:"NOT NULL;DEFAULT:0;index:idx_type_priority,priority:2"`
	Enabled       bool   `gorm:"NOT NULL;DEFAULT:true"`
	Ctime         int64
	Utime         int64
}

type routeDAO struct {
	db *egorm.Component
}

func NewRouteDAO(db *egorm.Component) RouteDAO {
	return &routeDAO{db: db}
}

func (d *routeDAO) GetByID(ctx context.Context, id int64) (Route, error) {
	var res Route
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Route{}, fmt.Errorf("%w: id = %d", errs.ErrRouteNotFound, id)
	}
	return res, err
}

func (d *routeDAO) ListActiveByType(ctx context.Context, messageType string) ([]Route, error) {
	var res []Route
	err := d.db.WithContext(ctx).
		Where("message_type = ? AND enabled = ?", messageType, true).
		Order("priority ASC, id ASC").
		Find(&res).Error
	return res, err
}
