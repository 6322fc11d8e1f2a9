package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type MessageRecordDAO interface {
	Create(ctx context.Context, data MessageRecord) (MessageRecord, error)
	GetByID(ctx context.Context, id int64) (MessageRecord, error)

	MarkSending(ctx context.Context, id int64) error
	MarkSucceeded(ctx context.Context, id int64, providerMessageID, providerResponse string) error
	MarkAwaitingRetry(ctx context.Context, id int64, retryCount int, reason string) error
	MarkFailed(ctx context.Context, id int64, retryCount int, reason string) error
	// ResetForManualRetry 只有 FAILED 的记录可以重置
	ResetForManualRetry(ctx context.Context, id int64) error

	// ClaimJob 原子地抢占记录的租约，终态记录和租约未过期的记录抢占失败
	ClaimJob(ctx context.Context, id int64, owner string, leaseExpire int64) (bool, error)
	// FindStale 找出 utime 早于 before 的非终态记录
	FindStale(ctx context.Context, before int64, limit int) ([]MessageRecord, error)
	// Touch 刷新 utime，避免同一条记录被反复捞起
	Touch(ctx context.Context, ids []int64) error
}

// MessageRecord 发送记录表
type MessageRecord struct {
	ID                int64  `gorm:"primaryKey;comment:'雪花算法ID'"`
	TaskID            string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uk_task_id;comment:'对外暴露的任务ID'"`
	MessageType       string `gorm:"type:ENUM('SMS','EMAIL','APP_PUSH');NOT NULL;comment:'消息类型'"`
	TemplateCode      string `gorm:"type:VARCHAR(128);NOT NULL;comment:'模板编码'"`
	Recipient         string `gorm:"type:VARCHAR(256);NOT NULL;comment:'接收者(手机/邮箱/设备)'"`
	Variables         string `gorm:"type:TEXT;comment:'模板变量，JSON'"`
	RouteID           int64  `gorm:"type:BIGINT;NOT NULL;comment:'路由ID'"`
	ProviderType      string `gorm:"type:VARCHAR(32);NOT NULL;comment:'供应商类型'"`
	Status            string `gorm:"type:ENUM('PENDING','SENDING','SUCCEEDED','AWAITING_RETRY','FAILED');DEFAULT:'PENDING';index:idx_status_utime,priority:1;comment:'发送状态'"`
	SendTime          int64  `gorm:"comment:'最近一次开始发送的时间'"`
	CompleteTime      int64  `gorm:"comment:'进入终态的时间'"`
	ProviderMessageID string `gorm:"type:VARCHAR(128);comment:'供应商返回的消息ID'"`
	ProviderResponse  string `gorm:"type:TEXT;comment:'供应商原始响应'"`
	FailureReason     string `gorm:"type:TEXT;comment:'失败原因'"`
	RetryCount        int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'失败次数'"`
	Priority          int    `gorm:"type:INT;NOT NULL;DEFAULT:0"`
	CallbackURL       string `gorm:"column:callback_url;type:VARCHAR(512);comment:'回调地址'"`
	CustomTag         string `gorm:"type:VARCHAR(128)"`
	Owner             string `gorm:"type:VARCHAR(64);NOT NULL;DEFAULT:'';comment:'持有租约的 worker'"`
	LeaseExpire       int64  `gorm:"NOT NULL;DEFAULT:0;comment:'租约过期时间'"`
	Ctime             int64
	Utime             int64 `gorm:"index:idx_status_utime,priority:2"`
}

type messageRecordDAO struct {
	db  *egorm.Component
	now func() time.Time
}

// NewMessageRecordDAO 创建发送记录DAO实例
func NewMessageRecordDAO(db *egorm.Component) MessageRecordDAO {
	return &messageRecordDAO{
		db:  db,
		now: time.Now,
	}
}

func (d *messageRecordDAO) Create(ctx context.Context, data MessageRecord) (MessageRecord, error) {
	now := d.now().UnixMilli()
	data.Ctime, data.Utime = now, now
	if data.Status == "" {
		data.Status = string(domain.SendStatusPending)
	}
	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if isUniqueConstraintError(err) {
			return MessageRecord{}, fmt.Errorf("%w: id = %d", errs.ErrRecordDuplicate, data.ID)
		}
		return MessageRecord{}, err
	}
	return data, nil
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}

func (d *messageRecordDAO) GetByID(ctx context.Context, id int64) (MessageRecord, error) {
	var res MessageRecord
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MessageRecord{}, fmt.Errorf("%w: id = %d", errs.ErrRecordNotFound, id)
	}
	return res, err
}

func (d *messageRecordDAO) update(ctx context.Context, id int64, updates map[string]any) error {
	updates["utime"] = d.now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrRecordNotFound, id)
	}
	return nil
}

func (d *messageRecordDAO) MarkSending(ctx context.Context, id int64) error {
	return d.update(ctx, id, map[string]any{
		"status":    string(domain.SendStatusSending),
		"send_time": d.now().UnixMilli(),
	})
}

func (d *messageRecordDAO) MarkSucceeded(ctx context.Context, id int64, providerMessageID, providerResponse string) error {
	return d.update(ctx, id, map[string]any{
		"status":              string(domain.SendStatusSucceeded),
		"complete_time":       d.now().UnixMilli(),
		"provider_message_id": providerMessageID,
		"provider_response":   providerResponse,
		"failure_reason":      "",
		"owner":               "",
		"lease_expire":        0,
	})
}

func (d *messageRecordDAO) MarkAwaitingRetry(ctx context.Context, id int64, retryCount int, reason string) error {
	return d.update(ctx, id, map[string]any{
		"status":         string(domain.SendStatusAwaitingRetry),
		"retry_count":    retryCount,
		"failure_reason": reason,
		"owner":          "",
		"lease_expire":   0,
	})
}

func (d *messageRecordDAO) MarkFailed(ctx context.Context, id int64, retryCount int, reason string) error {
	return d.update(ctx, id, map[string]any{
		"status":         string(domain.SendStatusFailed),
		"retry_count":    retryCount,
		"failure_reason": reason,
		"complete_time":  d.now().UnixMilli(),
		"owner":          "",
		"lease_expire":   0,
	})
}

func (d *messageRecordDAO) ResetForManualRetry(ctx context.Context, id int64) error {
	res := d.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("id = ? AND status = ?", id, string(domain.SendStatusFailed)).
		Updates(map[string]any{
			"status":         string(domain.SendStatusPending),
			"retry_count":    0,
			"failure_reason": "",
			"complete_time":  0,
			"utime":          d.now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id = %d", errs.ErrRecordNotRetryable, id)
	}
	return nil
}

func (d *messageRecordDAO) ClaimJob(ctx context.Context, id int64, owner string, leaseExpire int64) (bool, error) {
	now := d.now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("id = ? AND status NOT IN ? AND (owner = '' OR owner = ? OR lease_expire < ?)",
			id, []string{string(domain.SendStatusSucceeded), string(domain.SendStatusFailed)}, owner, now).
		Updates(map[string]any{
			"owner":        owner,
			"lease_expire": leaseExpire,
			"utime":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (d *messageRecordDAO) FindStale(ctx context.Context, before int64, limit int) ([]MessageRecord, error) {
	var res []MessageRecord
	err := d.db.WithContext(ctx).
		Where("status IN ? AND utime < ?", []string{
			string(domain.SendStatusPending),
			string(domain.SendStatusAwaitingRetry),
			string(domain.SendStatusSending),
		}, before).
		Order("utime ASC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (d *messageRecordDAO) Touch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Model(&MessageRecord{}).
		Where("id IN ?", ids).
		Update("utime", d.now().UnixMilli()).Error
}
