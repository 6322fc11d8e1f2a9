package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"gitee.com/flycash/msgpulse/internal/pkg/queue"
	"gitee.com/flycash/msgpulse/internal/pkg/ratelimit"
	"gitee.com/flycash/msgpulse/internal/repository"
	"gitee.com/flycash/msgpulse/internal/service/callback"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultWorkerCount = 5

type Config struct {
	WorkerCount int             `yaml:"workerCount"`
	MaxAttempts int             `yaml:"maxAttempts"`
	Backoff     []time.Duration `yaml:"backoff"`
	// Claim 多进程共享一个库时打开，worker 先抢租约再发送
	Claim ClaimConfig `yaml:"claim"`
}

type ClaimConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Lease    time.Duration `yaml:"lease"`
	WorkerID string        `yaml:"workerId"`
}

// ProviderResolver 按路由拿到初始化好的供应商实例
type ProviderResolver interface {
	Resolve(ctx context.Context, routeID int64, typ domain.ProviderType, configuration string) (provider.Provider, error)
}

// ConfigDecrypter 供应商配置可能是加密存储的
type ConfigDecrypter interface {
	DecryptIfNeeded(value string) (string, error)
}

// Pool N 个 worker 共享一个有界队列
type Pool struct {
	queue     *queue.BoundedQueue[domain.Job]
	records   repository.MessageRecordRepository
	routes    repository.RouteRepository
	providers ProviderResolver
	decrypter ConfigDecrypter
	limiter   ratelimit.Limiter
	payloads  *PayloadBuilder
	notifier  callback.Notifier
	scheduler DelayScheduler

	policy      RetryPolicy
	workerCount int
	claim       ClaimConfig

	metrics *poolMetrics
	logger  *elog.Component
	now     func() time.Time

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewPool(
	cfg Config,
	q *queue.BoundedQueue[domain.Job],
	records repository.MessageRecordRepository,
	routes repository.RouteRepository,
	providers ProviderResolver,
	decrypter ConfigDecrypter,
	limiter ratelimit.Limiter,
	payloads *PayloadBuilder,
	notifier callback.Notifier,
	scheduler DelayScheduler,
	reg prometheus.Registerer,
) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.Claim.Lease <= 0 {
		cfg.Claim.Lease = time.Minute
	}
	p := &Pool{
		queue:       q,
		records:     records,
		routes:      routes,
		providers:   providers,
		decrypter:   decrypter,
		limiter:     limiter,
		payloads:    payloads,
		notifier:    notifier,
		scheduler:   scheduler,
		policy:      NewRetryPolicy(cfg.MaxAttempts, cfg.Backoff),
		workerCount: cfg.WorkerCount,
		claim:       cfg.Claim,
		logger:      elog.DefaultLogger.With(elog.String("component", "dispatch")),
		now:         time.Now,
	}
	p.metrics = newPoolMetrics(reg, func() float64 { return float64(q.Len()) })
	return p
}

// Enqueue 队列满时阻塞，直到有空位、ctx 结束或者队列关闭
func (p *Pool) Enqueue(ctx context.Context, job domain.Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = p.now()
	}
	err := p.queue.Enqueue(ctx, job)
	if errors.Is(err, queue.ErrClosed) {
		return fmt.Errorf("%w: %w", errs.ErrPoolStopped, err)
	}
	return err
}

// Start 启动 worker，重复调用只生效一次
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.logger.Info("启动发送 worker", elog.Int("workerCount", p.workerCount))
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.work(ctx, i)
		}
	})
}

// Stop 不再接收新的 job，已经在发送的 job 会执行完，队列里剩下的也会被消费完
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.scheduler.Stop()
		p.queue.Close()
	})
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("发送 worker 全部退出")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待 worker 退出超时: %w", ctx.Err())
	}
}

func (p *Pool) work(ctx context.Context, idx int) {
	defer p.wg.Done()
	logger := p.logger.With(elog.Int("worker", idx))
	for {
		job, ok := p.queue.Dequeue(ctx)
		if !ok {
			logger.Debug("worker 退出")
			return
		}
		// 已经取出来的 job 不受 ctx 取消影响，保证发送完
		p.handle(context.WithoutCancel(ctx), job)
	}
}

func (p *Pool) handle(ctx context.Context, job domain.Job) {
	start := p.now()
	defer func() {
		p.metrics.duration.Observe(p.now().Sub(start).Seconds())
		if r := recover(); r != nil {
			p.metrics.observe(outcomeError)
			p.logger.Error("处理 job 出现 panic", elog.Int64("recordId", job.RecordID), elog.Any("panic", r))
		}
	}()
	p.metrics.observe(p.process(ctx, job))
}

func (p *Pool) process(ctx context.Context, job domain.Job) string {
	logger := p.logger.With(elog.Int64("recordId", job.RecordID), elog.String("taskId", job.TaskID))
	record, err := p.records.GetByID(ctx, job.RecordID)
	if err != nil {
		logger.Error("加载发送记录失败", elog.FieldErr(err))
		return outcomeError
	}
	// 恢复任务或者重复入队可能让同一条记录出现多次
	if record.Status.IsTerminal() {
		logger.Info("记录已是终态，跳过", elog.String("status", string(record.Status)))
		return outcomeSkipped
	}
	if p.claim.Enabled {
		ok, err := p.records.ClaimJob(ctx, record.ID, p.claim.WorkerID, p.now().Add(p.claim.Lease))
		if err != nil {
			logger.Error("抢占发送记录失败", elog.FieldErr(err))
			return outcomeError
		}
		if !ok {
			logger.Info("记录被其他 worker 持有，跳过")
			return outcomeSkipped
		}
	}

	admit, err := p.limiter.CheckAndAdmit(ctx, domain.RouteScope(record.RouteID))
	switch {
	case err != nil:
		// 限流存储不可用时放行
		logger.Warn("限流检查失败，直接放行", elog.FieldErr(err))
	case !admit.Allowed:
		delay := time.Duration(admit.RetryAfterSeconds) * time.Second
		logger.Info("触发限流，延迟重新入队", elog.String("reason", admit.Reason), elog.Any("delay", delay))
		p.later(delay, job)
		return outcomeRateLimited
	}

	if err = p.records.MarkSending(ctx, record.ID); err != nil {
		logger.Error("更新为发送中失败", elog.FieldErr(err))
		return outcomeError
	}
	record.Status = domain.SendStatusSending
	record.SendTime = p.now()

	result, err := p.deliver(ctx, record)
	switch {
	case err == nil && result.Success:
		return p.succeed(ctx, record, result)
	case err != nil && errs.IsPermanent(err):
		return p.fail(ctx, record, record.RetryCount+1, err.Error())
	case err == nil && result.Unsupported:
		return p.fail(ctx, record, record.RetryCount+1, fmt.Errorf("%w: %s", errs.ErrUnsupportedChannel, result.ErrorMessage).Error())
	default:
		return p.retryOrFail(ctx, job, record, failureReason(result, err))
	}
}

// deliver 解析路由、供应商，然后按消息类型发送。
// 这一段里任何 panic（路由、解密、供应商初始化、发送）都当作一次失败的投递
func (p *Pool) deliver(ctx context.Context, record domain.MessageRecord) (res domain.DeliveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("发送出现 panic", elog.Int64("recordId", record.ID), elog.Int64("routeId", record.RouteID), elog.Any("panic", r))
			res, err = domain.Undelivered(fmt.Sprintf("供应商异常: %v", r), ""), nil
		}
	}()
	route, err := p.routes.GetByID(ctx, record.RouteID)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	if !route.Enabled {
		return domain.DeliveryResult{}, fmt.Errorf("%w: 路由已停用 id = %d", errs.ErrRouteNotFound, route.ID)
	}
	conf, err := p.decrypter.DecryptIfNeeded(route.Configuration)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("%w: %w", errs.ErrDecryptFailed, err)
	}
	prov, err := p.providers.Resolve(ctx, route.ID, route.ProviderType, conf)
	if err != nil {
		return domain.DeliveryResult{}, err
	}

	switch record.MessageType {
	case domain.MessageTypeSMS:
		return prov.SendSms(ctx, p.payloads.SMS(record)), nil
	case domain.MessageTypeEmail:
		req, err := p.payloads.Email(ctx, record)
		if err != nil {
			return domain.DeliveryResult{}, err
		}
		return prov.SendEmail(ctx, req), nil
	case domain.MessageTypeAppPush:
		return prov.SendPush(ctx, p.payloads.Push(record)), nil
	default:
		return domain.DeliveryResult{}, fmt.Errorf("%w: %s", errs.ErrUnsupportedChannel, record.MessageType)
	}
}

func (p *Pool) succeed(ctx context.Context, record domain.MessageRecord, result domain.DeliveryResult) string {
	if err := p.records.MarkSucceeded(ctx, record.ID, result); err != nil {
		p.logger.Error("更新为发送成功失败", elog.Int64("recordId", record.ID), elog.FieldErr(err))
		return outcomeError
	}
	record.Status = domain.SendStatusSucceeded
	record.ProviderMessageID = result.ProviderMessageID
	record.ProviderResponse = result.RawResponse
	record.FailureReason = ""
	record.CompleteTime = p.now()
	p.notifier.Notify(ctx, record)
	return outcomeSucceeded
}

func (p *Pool) fail(ctx context.Context, record domain.MessageRecord, retryCount int, reason string) string {
	if err := p.records.MarkFailed(ctx, record.ID, retryCount, reason); err != nil {
		p.logger.Error("更新为最终失败失败", elog.Int64("recordId", record.ID), elog.FieldErr(err))
		return outcomeError
	}
	p.logger.Warn("发送最终失败", elog.Int64("recordId", record.ID), elog.Int("retryCount", retryCount), elog.String("reason", reason))
	record.Status = domain.SendStatusFailed
	record.RetryCount = retryCount
	record.FailureReason = reason
	record.CompleteTime = p.now()
	p.notifier.Notify(ctx, record)
	return outcomeFailed
}

func (p *Pool) retryOrFail(ctx context.Context, job domain.Job, record domain.MessageRecord, reason string) string {
	retryCount := record.RetryCount + 1
	delay, ok := p.policy.NextDelay(retryCount)
	if !ok {
		return p.fail(ctx, record, retryCount, reason)
	}
	if err := p.records.MarkAwaitingRetry(ctx, record.ID, retryCount, reason); err != nil {
		p.logger.Error("更新为等待重试失败", elog.Int64("recordId", record.ID), elog.FieldErr(err))
		return outcomeError
	}
	record.Status = domain.SendStatusAwaitingRetry
	record.RetryCount = retryCount
	record.FailureReason = reason
	p.notifier.Notify(ctx, record)

	job.RetryCount = retryCount
	p.later(delay, job)
	return outcomeRetry
}

// later 延迟重新入队，不占用 worker
func (p *Pool) later(delay time.Duration, job domain.Job) {
	p.scheduler.Schedule(delay, func() {
		job.EnqueuedAt = p.now()
		if err := p.queue.Enqueue(context.Background(), job); err != nil {
			// 记录停留在非终态，由恢复任务兜底
			p.logger.Warn("重新入队失败", elog.Int64("recordId", job.RecordID), elog.FieldErr(err))
		}
	})
}

func failureReason(result domain.DeliveryResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result.ErrorMessage != "" {
		return result.ErrorMessage
	}
	return errs.ErrSendFailed.Error()
}
