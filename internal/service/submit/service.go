package submit

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"gitee.com/flycash/msgpulse/internal/pkg/dedup"
	"gitee.com/flycash/msgpulse/internal/repository"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
)

// IDGenerator *sonyflake.Sonyflake 满足这个接口
type IDGenerator interface {
	NextID() (uint64, error)
}

// Enqueuer 一般是发送 worker 池
type Enqueuer interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

type Request struct {
	MessageType  domain.MessageType
	Recipient    string
	TemplateCode string
	Variables    map[string]string
	Priority     int
	CallbackURL  string
	CustomTag    string
}

type Result struct {
	TaskID   string
	RecordID int64
	Status   domain.SendStatus
}

// Service 消息的入口：去重、选路由、落库、入队
type Service struct {
	records  repository.MessageRecordRepository
	resolver *RouteResolver
	guard    dedup.Guard
	queue    Enqueuer
	ids      IDGenerator
	logger   *elog.Component
	now      func() time.Time
}

func NewService(
	records repository.MessageRecordRepository,
	resolver *RouteResolver,
	guard dedup.Guard,
	queue Enqueuer,
	ids IDGenerator,
) *Service {
	return &Service{
		records:  records,
		resolver: resolver,
		guard:    guard,
		queue:    queue,
		ids:      ids,
		logger:   elog.DefaultLogger.With(elog.String("component", "submit")),
		now:      time.Now,
	}
}

// Submit 队列满时阻塞，直到 ctx 结束
func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	record := domain.MessageRecord{
		MessageType:  req.MessageType,
		TemplateCode: req.TemplateCode,
		Recipient:    req.Recipient,
		Variables:    req.Variables,
		Priority:     req.Priority,
		CallbackURL:  req.CallbackURL,
		CustomTag:    req.CustomTag,
		Status:       domain.SendStatusPending,
	}
	if err := record.Validate(); err != nil {
		return Result{}, err
	}

	dreq := dedup.FromRecord(record)
	dup, err := s.guard.IsDuplicate(ctx, dreq)
	if err != nil {
		// 去重只是尽力而为，出错时放行
		s.logger.Warn("去重检查失败", elog.String("recipient", record.Recipient), elog.FieldErr(err))
	}
	if dup {
		return Result{}, fmt.Errorf("%w: recipient = %s, template = %s", errs.ErrDuplicateMessage, record.Recipient, record.TemplateCode)
	}

	route, err := s.resolver.Resolve(ctx, record.MessageType)
	if err != nil {
		return Result{}, err
	}
	record.RouteID = route.ID
	record.ProviderType = route.ProviderType

	id, err := s.ids.NextID()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", errs.ErrRecordIDGenerate, err)
	}
	record.ID = int64(id)
	taskID, err := uuid.NewV4()
	if err != nil {
		return Result{}, fmt.Errorf("%w: 生成任务 ID 失败 %w", errs.ErrRecordIDGenerate, err)
	}
	record.TaskID = taskID.String()

	record, err = s.records.Create(ctx, record)
	if err != nil {
		return Result{}, err
	}
	if err = s.guard.Record(ctx, dreq); err != nil {
		s.logger.Warn("记录去重键失败", elog.String("taskId", record.TaskID), elog.FieldErr(err))
	}
	if err = s.queue.Enqueue(ctx, record.Job(s.now())); err != nil {
		// 记录已经落库，留给恢复任务
		return Result{}, fmt.Errorf("入队失败 taskId = %s: %w", record.TaskID, err)
	}
	return Result{TaskID: record.TaskID, RecordID: record.ID, Status: record.Status}, nil
}

// Retry 手动重试最终失败的记录，会绕过去重
func (s *Service) Retry(ctx context.Context, recordID int64) (Result, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return Result{}, err
	}
	if record.Status != domain.SendStatusFailed {
		return Result{}, fmt.Errorf("%w: id = %d, status = %s", errs.ErrRecordNotRetryable, recordID, record.Status)
	}
	if err = s.guard.Clear(ctx, dedup.FromRecord(record)); err != nil {
		s.logger.Warn("清理去重键失败", elog.Int64("recordId", recordID), elog.FieldErr(err))
	}
	if err = s.records.ResetForManualRetry(ctx, recordID); err != nil {
		return Result{}, err
	}
	record.Status = domain.SendStatusPending
	record.RetryCount = 0
	if err = s.queue.Enqueue(ctx, record.Job(s.now())); err != nil {
		return Result{}, fmt.Errorf("入队失败 taskId = %s: %w", record.TaskID, err)
	}
	return Result{TaskID: record.TaskID, RecordID: record.ID, Status: record.Status}, nil
}
