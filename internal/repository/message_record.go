package repository

import (
	"context"
	"encoding/json"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

// MessageRecordRepository 发送记录仓储，持久化的记录是状态的唯一来源
//
//go:generate mockgen -source=./message_record.go -destination=./mocks/message_record.mock.go -package=repomocks MessageRecordRepository
type MessageRecordRepository interface {
	Create(ctx context.Context, record domain.MessageRecord) (domain.MessageRecord, error)
	GetByID(ctx context.Context, id int64) (domain.MessageRecord, error)

	MarkSending(ctx context.Context, id int64) error
	MarkSucceeded(ctx context.Context, id int64, result domain.DeliveryResult) error
	MarkAwaitingRetry(ctx context.Context, id int64, retryCount int, reason string) error
	MarkFailed(ctx context.Context, id int64, retryCount int, reason string) error
	ResetForManualRetry(ctx context.Context, id int64) error

	ClaimJob(ctx context.Context, id int64, workerID string, leaseExpiry time.Time) (bool, error)
	FindStale(ctx context.Context, before time.Time, limit int) ([]domain.MessageRecord, error)
	Touch(ctx context.Context, ids []int64) error
}

type messageRecordRepository struct {
	dao    dao.MessageRecordDAO
	logger *elog.Component
}

func NewMessageRecordRepository(d dao.MessageRecordDAO) MessageRecordRepository {
	return &messageRecordRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (r *messageRecordRepository) Create(ctx context.Context, record domain.MessageRecord) (domain.MessageRecord, error) {
	entity, err := r.dao.Create(ctx, r.toEntity(record))
	if err != nil {
		return domain.MessageRecord{}, err
	}
	return r.toDomain(entity), nil
}

func (r *messageRecordRepository) GetByID(ctx context.Context, id int64) (domain.MessageRecord, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.MessageRecord{}, err
	}
	return r.toDomain(entity), nil
}

func (r *messageRecordRepository) MarkSending(ctx context.Context, id int64) error {
	return r.dao.MarkSending(ctx, id)
}

func (r *messageRecordRepository) MarkSucceeded(ctx context.Context, id int64, result domain.DeliveryResult) error {
	return r.dao.MarkSucceeded(ctx, id, result.ProviderMessageID, result.RawResponse)
}

func (r *messageRecordRepository) MarkAwaitingRetry(ctx context.Context, id int64, retryCount int, reason string) error {
	return r.dao.MarkAwaitingRetry(ctx, id, retryCount, reason)
}

func (r *messageRecordRepository) MarkFailed(ctx context.Context, id int64, retryCount int, reason string) error {
	return r.dao.MarkFailed(ctx, id, retryCount, reason)
}

func (r *messageRecordRepository) ResetForManualRetry(ctx context.Context, id int64) error {
	return r.dao.ResetForManualRetry(ctx, id)
}

func (r *messageRecordRepository) ClaimJob(ctx context.Context, id int64, workerID string, leaseExpiry time.Time) (bool, error) {
	return r.dao.ClaimJob(ctx, id, workerID, leaseExpiry.UnixMilli())
}

func (r *messageRecordRepository) FindStale(ctx context.Context, before time.Time, limit int) ([]domain.MessageRecord, error) {
	entities, err := r.dao.FindStale(ctx, before.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	res := make([]domain.MessageRecord, 0, len(entities))
	for i := range entities {
		res = append(res, r.toDomain(entities[i]))
	}
	return res, nil
}

func (r *messageRecordRepository) Touch(ctx context.Context, ids []int64) error {
	return r.dao.Touch(ctx, ids)
}

func (r *messageRecordRepository) toEntity(record domain.MessageRecord) dao.MessageRecord {
	vars := ""
	if len(record.Variables) > 0 {
		data, _ := json.Marshal(record.Variables)
		vars = string(data)
	}
	return dao.MessageRecord{
		ID:                record.ID,
		TaskID:            record.TaskID,
		MessageType:       string(record.MessageType),
		TemplateCode:      record.TemplateCode,
		Recipient:         record.Recipient,
		Variables:         vars,
		RouteID:           record.RouteID,
		ProviderType:      string(record.ProviderType),
		Status:            string(record.Status),
		SendTime:          toMillis(record.SendTime),
		CompleteTime:      toMillis(record.CompleteTime),
		ProviderMessageID: record.ProviderMessageID,
		ProviderResponse:  record.ProviderResponse,
		FailureReason:     record.FailureReason,
		RetryCount:        record.RetryCount,
		Priority:          record.Priority,
		CallbackURL:       record.CallbackURL,
		CustomTag:         record.CustomTag,
		Owner:             record.Owner,
		LeaseExpire:       toMillis(record.LeaseExpire),
	}
}

func (r *messageRecordRepository) toDomain(entity dao.MessageRecord) domain.MessageRecord {
	var vars map[string]string
	if entity.Variables != "" {
		if err := json.Unmarshal([]byte(entity.Variables), &vars); err != nil {
			r.logger.Warn("模板变量反序列化失败", elog.Int64("id", entity.ID), elog.FieldErr(err))
		}
	}
	return domain.MessageRecord{
		ID:                entity.ID,
		TaskID:            entity.TaskID,
		MessageType:       domain.MessageType(entity.MessageType),
		TemplateCode:      entity.TemplateCode,
		Recipient:         entity.Recipient,
		Variables:         vars,
		RouteID:           entity.RouteID,
		ProviderType:      domain.ProviderType(entity.ProviderType),
		Status:            domain.SendStatus(entity.Status),
		SendTime:          fromMillis(entity.SendTime),
		CompleteTime:      fromMillis(entity.CompleteTime),
		ProviderMessageID: entity.ProviderMessageID,
		ProviderResponse:  entity.ProviderResponse,
		FailureReason:     entity.FailureReason,
		RetryCount:        entity.RetryCount,
		Priority:          entity.Priority,
		CallbackURL:       entity.CallbackURL,
		CustomTag:         entity.CustomTag,
		Owner:             entity.Owner,
		LeaseExpire:       fromMillis(entity.LeaseExpire),
		Ctime:             fromMillis(entity.Ctime),
		Utime:             fromMillis(entity.Utime),
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
