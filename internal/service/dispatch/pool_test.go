//go:build unit

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/errs"
	"gitee.com/flycash/msgpulse/internal/pkg/queue"
	"gitee.com/flycash/msgpulse/internal/service/callback"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	providermocks "gitee.com/flycash/msgpulse/internal/service/provider/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy(0, nil)
	testCases := []struct {
		name       string
		retryCount int
		wantDelay  time.Duration
		wantOK     bool
	}{
		{name: "第一次失败", retryCount: 1, wantDelay: 5 * time.Second, wantOK: true},
		{name: "第二次失败", retryCount: 2, wantDelay: 30 * time.Second, wantOK: true},
		{name: "第三次失败", retryCount: 3, wantDelay: 5 * time.Minute, wantOK: true},
		{name: "超过最大次数", retryCount: 4, wantOK: false},
		{name: "非法次数", retryCount: 0, wantOK: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			delay, ok := policy.NextDelay(tc.retryCount)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantDelay, delay)
		})
	}

	// 超出阶梯长度时沿用最后一档
	long := NewRetryPolicy(5, []time.Duration{time.Second, 2 * time.Second})
	delay, ok := long.NextDelay(5)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, delay)
}

func TestTimerScheduler(t *testing.T) {
	t.Parallel()

	s := NewTimerScheduler()
	fired := make(chan struct{}, 1)
	s.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("定时任务没有触发")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)

	s.Schedule(time.Hour, func() { t.Error("不应该触发") })
	assert.Equal(t, 1, s.Pending())
	s.Stop()
	assert.Equal(t, 0, s.Pending())
	// 停止之后的任务直接丢弃
	s.Schedule(time.Millisecond, func() { t.Error("不应该触发") })
	assert.Equal(t, 0, s.Pending())
}

func TestPool_RetryLadder(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{WorkerCount: 1})
	env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).
		Return(domain.Undelivered("vendor timeout", "")).Times(4)
	record := env.records.add(domain.MessageRecord{
		TaskID:       "task-ladder",
		MessageType:  domain.MessageTypeSMS,
		TemplateCode: "OTP",
		Recipient:    "+15550001",
		RouteID:      1,
		Status:       domain.SendStatusPending,
	})

	env.pool.Start(t.Context())
	require.NoError(t, env.pool.Enqueue(t.Context(), record.Job(time.Now())))
	require.Eventually(t, func() bool {
		return env.records.get(record.ID).Status == domain.SendStatusFailed
	}, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, env.pool.Stop(t.Context()))

	final := env.records.get(record.ID)
	assert.Equal(t, 4, final.RetryCount)
	assert.Equal(t, "vendor timeout", final.FailureReason)
	assert.Equal(t, []time.Duration{5 * time.Second, 30 * time.Second, 5 * time.Minute}, env.scheduler.delays())
	assert.Equal(t, []domain.SendStatus{
		domain.SendStatusSending, domain.SendStatusAwaitingRetry,
		domain.SendStatusSending, domain.SendStatusAwaitingRetry,
		domain.SendStatusSending, domain.SendStatusAwaitingRetry,
		domain.SendStatusSending, domain.SendStatusFailed,
	}, env.records.history(record.ID))

	notified := env.notifier.all()
	require.Len(t, notified, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.SendStatusAwaitingRetry, notified[i].Status)
		assert.Equal(t, i+1, notified[i].RetryCount)
	}
	assert.Equal(t, domain.SendStatusFailed, notified[3].Status)
	assert.Equal(t, 4, notified[3].RetryCount)
}

func TestPool_SkipTerminal(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{})
	// provider 上没有任何 EXPECT，被调用测试就会失败
	record := env.records.add(domain.MessageRecord{
		TaskID:       "task-done",
		MessageType:  domain.MessageTypeSMS,
		TemplateCode: "OTP",
		Recipient:    "+15550001",
		RouteID:      1,
		Status:       domain.SendStatusSucceeded,
	})

	outcome := env.pool.process(t.Context(), record.Job(time.Now()))
	assert.Equal(t, outcomeSkipped, outcome)
	assert.Empty(t, env.records.history(record.ID))
	assert.Empty(t, env.notifier.all())
	assert.Zero(t, env.limiter.calls())
}

func TestPool_EndToEndSuccess(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	var (
		mu       sync.Mutex
		payloads []callback.Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p callback.Payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
	}))
	defer srv.Close()

	notifier := callback.NewHTTPNotifier(time.Second)
	env := newTestEnv(t, ctrl, Config{WorkerCount: 2})
	env.pool.notifier = notifier
	env.provider.EXPECT().SendSms(gomock.Any(), domain.SMSRequest{
		PhoneNumber:  "+15550001",
		TemplateCode: "OTP",
		Variables:    map[string]string{"code": "1234"},
	}).Return(domain.Delivered("abc123", `{"code":"OK"}`))

	record := env.records.add(domain.MessageRecord{
		TaskID:       "task-ok",
		MessageType:  domain.MessageTypeSMS,
		TemplateCode: "OTP",
		Recipient:    "+15550001",
		Variables:    map[string]string{"code": "1234"},
		RouteID:      1,
		Status:       domain.SendStatusPending,
		CallbackURL:  srv.URL,
	})

	env.pool.Start(t.Context())
	require.NoError(t, env.pool.Enqueue(t.Context(), record.Job(time.Now())))
	require.Eventually(t, func() bool {
		return env.records.get(record.ID).Status == domain.SendStatusSucceeded
	}, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, env.pool.Stop(t.Context()))
	notifier.Wait()

	final := env.records.get(record.ID)
	assert.Equal(t, "abc123", final.ProviderMessageID)
	assert.Equal(t, []domain.SendStatus{domain.SendStatusSending, domain.SendStatusSucceeded}, env.records.history(record.ID))
	assert.Empty(t, env.scheduler.delays())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 1)
	assert.Equal(t, "SUCCEEDED", payloads[0].SendStatus)
	assert.Equal(t, "task-ok", payloads[0].TaskID)
	assert.Equal(t, "+15550001", payloads[0].Recipient)
	assert.NotNil(t, payloads[0].SendTime)
	assert.NotNil(t, payloads[0].CompleteTime)
	assert.Nil(t, payloads[0].FailureReason)
}

func TestPool_Process(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		cfg    Config
		record domain.MessageRecord
		before func(env *testEnv)

		wantOutcome  string
		wantHistory  []domain.SendStatus
		wantNotified []domain.SendStatus
		wantDelays   []time.Duration
		wantReason   string
	}{
		{
			name:   "未知供应商直接失败",
			record: smsRecord(2),
			before: func(env *testEnv) {
				env.routes.routes[2] = domain.Route{ID: 2, ProviderType: "unknown", Enabled: true}
			},
			wantOutcome:  outcomeFailed,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusFailed},
			wantNotified: []domain.SendStatus{domain.SendStatusFailed},
			wantReason:   errs.ErrUnknownProvider.Error(),
		},
		{
			name:   "路由已停用直接失败",
			record: smsRecord(3),
			before: func(env *testEnv) {
				env.routes.routes[3] = domain.Route{ID: 3, ProviderType: domain.ProviderTypeConsole}
			},
			wantOutcome:  outcomeFailed,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusFailed},
			wantNotified: []domain.SendStatus{domain.SendStatusFailed},
			wantReason:   errs.ErrRouteNotFound.Error(),
		},
		{
			name:   "供应商不支持该消息类型",
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).
					Return(domain.DeliveryResult{ErrorMessage: "不支持短信", Unsupported: true})
			},
			wantOutcome:  outcomeFailed,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusFailed},
			wantNotified: []domain.SendStatus{domain.SendStatusFailed},
			wantReason:   errs.ErrUnsupportedChannel.Error(),
		},
		{
			name:   "供应商 panic 当作一次失败",
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
						panic("boom")
					})
			},
			wantOutcome:  outcomeRetry,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusAwaitingRetry},
			wantNotified: []domain.SendStatus{domain.SendStatusAwaitingRetry},
			wantDelays:   []time.Duration{5 * time.Second},
			wantReason:   "boom",
		},
		{
			name:   "触发限流延迟入队，不计失败次数",
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.limiter.result = domain.AdmitResult{Allowed: false, Reason: "global 超限", RetryAfterSeconds: 2}
			},
			wantOutcome: outcomeRateLimited,
			wantDelays:  []time.Duration{2 * time.Second},
		},
		{
			name:   "限流存储出错时放行",
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.limiter.err = errors.New("redis down")
				env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).Return(domain.Delivered("id-1", ""))
			},
			wantOutcome:  outcomeSucceeded,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusSucceeded},
			wantNotified: []domain.SendStatus{domain.SendStatusSucceeded},
		},
		{
			name:   "租约被其他 worker 持有",
			cfg:    Config{Claim: ClaimConfig{Enabled: true, WorkerID: "w-1"}},
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.records.claimOK = false
			},
			wantOutcome: outcomeSkipped,
		},
		{
			name:   "抢到租约之后正常发送",
			cfg:    Config{Claim: ClaimConfig{Enabled: true, WorkerID: "w-1"}},
			record: smsRecord(1),
			before: func(env *testEnv) {
				env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).Return(domain.Delivered("id-2", ""))
			},
			wantOutcome:  outcomeSucceeded,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusSucceeded},
			wantNotified: []domain.SendStatus{domain.SendStatusSucceeded},
		},
		{
			name: "邮件模板不存在直接失败",
			record: domain.MessageRecord{
				TaskID:       "task-mail",
				MessageType:  domain.MessageTypeEmail,
				TemplateCode: "missing",
				Recipient:    "a@example.com",
				RouteID:      1,
				Status:       domain.SendStatusPending,
			},
			wantOutcome:  outcomeFailed,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusFailed},
			wantNotified: []domain.SendStatus{domain.SendStatusFailed},
			wantReason:   errs.ErrTemplateNotFound.Error(),
		},
		{
			name: "推送消息",
			record: domain.MessageRecord{
				TaskID:       "task-push",
				MessageType:  domain.MessageTypeAppPush,
				TemplateCode: "welcome",
				Recipient:    "reg-1",
				Variables:    map[string]string{"content": "hi"},
				RouteID:      1,
				Status:       domain.SendStatusAwaitingRetry,
				RetryCount:   1,
			},
			before: func(env *testEnv) {
				env.provider.EXPECT().SendPush(gomock.Any(), domain.PushRequest{
					Target:  "reg-1",
					Title:   "通知",
					Content: "hi",
				}).Return(domain.Undelivered("quota exceeded", ""))
			},
			wantOutcome:  outcomeRetry,
			wantHistory:  []domain.SendStatus{domain.SendStatusSending, domain.SendStatusAwaitingRetry},
			wantNotified: []domain.SendStatus{domain.SendStatusAwaitingRetry},
			wantDelays:   []time.Duration{30 * time.Second},
			wantReason:   "quota exceeded",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			env := newTestEnv(t, ctrl, tc.cfg)
			env.scheduler.manual = true
			if tc.before != nil {
				tc.before(env)
			}
			record := env.records.add(tc.record)

			outcome := env.pool.process(t.Context(), record.Job(time.Now()))
			assert.Equal(t, tc.wantOutcome, outcome)
			assert.Equal(t, tc.wantHistory, env.records.history(record.ID))
			var notified []domain.SendStatus
			for _, n := range env.notifier.all() {
				notified = append(notified, n.Status)
			}
			assert.Equal(t, tc.wantNotified, notified)
			assert.Equal(t, tc.wantDelays, env.scheduler.delays())
			if tc.wantReason != "" {
				assert.Contains(t, env.records.get(record.ID).FailureReason, tc.wantReason)
			}
		})
	}
}

func TestPool_RateLimitedKeepsRetryCount(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{WorkerCount: 1})
	env.scheduler.manual = true
	env.limiter.result = domain.AdmitResult{RetryAfterSeconds: 1}
	record := env.records.add(smsRecord(1))

	job := record.Job(time.Now())
	assert.Equal(t, outcomeRateLimited, env.pool.process(t.Context(), job))
	assert.Equal(t, 0, env.records.get(record.ID).RetryCount)
	assert.Equal(t, domain.SendStatusPending, env.records.get(record.ID).Status)

	// 到期之后重新入队的 job 和原来的一样
	env.scheduler.fire()
	got, ok := env.queue.Dequeue(t.Context())
	require.True(t, ok)
	assert.Equal(t, job.RecordID, got.RecordID)
	assert.Equal(t, 0, got.RetryCount)
}

func TestPool_InitializePanicRetries(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	registry := provider.NewRegistry(map[domain.ProviderType]provider.Factory{
		domain.ProviderTypeConsole: func() provider.Provider {
			p := providermocks.NewMockProvider(ctrl)
			p.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(string) error {
				panic("sdk 解析配置崩溃")
			})
			return p
		},
	})
	env := newTestEnv(t, ctrl, Config{WorkerCount: 1}, withResolver(registry))
	env.scheduler.manual = true
	record := env.records.add(smsRecord(1))

	env.pool.handle(t.Context(), record.Job(time.Now()))

	got := env.records.get(record.ID)
	assert.Equal(t, domain.SendStatusAwaitingRetry, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.FailureReason, "初始化异常")
	assert.Equal(t, []domain.SendStatus{domain.SendStatusSending, domain.SendStatusAwaitingRetry}, env.records.history(record.ID))
	require.Len(t, env.notifier.all(), 1)
	assert.Equal(t, []time.Duration{5 * time.Second}, env.scheduler.delays())
}

func TestPool_ResolvePanicRetries(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{WorkerCount: 1}, withResolver(panicResolver{}))
	env.scheduler.manual = true
	record := env.records.add(smsRecord(1))

	assert.Equal(t, outcomeRetry, env.pool.process(t.Context(), record.Job(time.Now())))
	got := env.records.get(record.ID)
	assert.Equal(t, domain.SendStatusAwaitingRetry, got.Status)
	assert.Contains(t, got.FailureReason, "resolver 崩溃")
	require.Len(t, env.notifier.all(), 1)
}

func TestPool_DecryptFailureIsPermanent(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{WorkerCount: 1}, withDecrypter(failingDecrypter{}))
	env.scheduler.manual = true
	record := env.records.add(smsRecord(1))

	assert.Equal(t, outcomeFailed, env.pool.process(t.Context(), record.Job(time.Now())))
	got := env.records.get(record.ID)
	assert.Equal(t, domain.SendStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Contains(t, got.FailureReason, errs.ErrDecryptFailed.Error())
	assert.Empty(t, env.scheduler.delays())
}

func TestPool_StopDrains(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	reg := prometheus.NewRegistry()
	env := newTestEnv(t, ctrl, Config{WorkerCount: 3}, withRegistry(reg))
	const n = 20
	env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
			time.Sleep(5 * time.Millisecond)
			return domain.Delivered("ok", "")
		}).Times(n)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		r := env.records.add(smsRecord(1))
		ids = append(ids, r.ID)
		require.NoError(t, env.pool.Enqueue(t.Context(), r.Job(time.Now())))
	}

	env.pool.Start(t.Context())
	require.NoError(t, env.pool.Stop(t.Context()))

	for _, id := range ids {
		assert.Equal(t, domain.SendStatusSucceeded, env.records.get(id).Status)
	}
	err := env.pool.Enqueue(t.Context(), domain.Job{RecordID: 1})
	assert.ErrorIs(t, err, queue.ErrClosed)
	assert.ErrorIs(t, err, errs.ErrPoolStopped)
	assert.Equal(t, float64(n), testutil.ToFloat64(env.pool.metrics.outcomes.WithLabelValues(outcomeSucceeded)))
}

func TestPool_StopTimeout(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env := newTestEnv(t, ctrl, Config{WorkerCount: 1})
	release := make(chan struct{})
	env.provider.EXPECT().SendSms(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.SMSRequest) domain.DeliveryResult {
			<-release
			return domain.Delivered("ok", "")
		})
	r := env.records.add(smsRecord(1))
	env.pool.Start(t.Context())
	require.NoError(t, env.pool.Enqueue(t.Context(), r.Job(time.Now())))
	require.Eventually(t, func() bool {
		return env.records.get(r.ID).Status == domain.SendStatusSending
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, env.pool.Stop(ctx), context.DeadlineExceeded)

	// 正在发送的 job 会继续执行完
	close(release)
	require.NoError(t, env.pool.Stop(t.Context()))
	assert.Equal(t, domain.SendStatusSucceeded, env.records.get(r.ID).Status)
}

func smsRecord(routeID int64) domain.MessageRecord {
	return domain.MessageRecord{
		TaskID:       "task-sms",
		MessageType:  domain.MessageTypeSMS,
		TemplateCode: "OTP",
		Recipient:    "+15550001",
		RouteID:      routeID,
		Status:       domain.SendStatusPending,
	}
}

type testEnv struct {
	pool      *Pool
	queue     *queue.BoundedQueue[domain.Job]
	records   *memRecords
	routes    *memRoutes
	provider  *providermocks.MockProvider
	limiter   *stubLimiter
	notifier  *recordingNotifier
	scheduler *recordingScheduler
}

type envOption func(*envOptions)

type envOptions struct {
	reg       prometheus.Registerer
	resolver  ProviderResolver
	decrypter ConfigDecrypter
}

func withRegistry(reg prometheus.Registerer) envOption {
	return func(o *envOptions) { o.reg = reg }
}

func withResolver(r ProviderResolver) envOption {
	return func(o *envOptions) { o.resolver = r }
}

func withDecrypter(d ConfigDecrypter) envOption {
	return func(o *envOptions) { o.decrypter = d }
}

func newTestEnv(t *testing.T, ctrl *gomock.Controller, cfg Config, opts ...envOption) *testEnv {
	t.Helper()
	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}
	env := &testEnv{
		queue:     queue.NewBoundedQueue[domain.Job](64),
		records:   newMemRecords(),
		routes:    &memRoutes{routes: map[int64]domain.Route{1: {ID: 1, ProviderType: domain.ProviderTypeConsole, Enabled: true}}},
		provider:  providermocks.NewMockProvider(ctrl),
		limiter:   &stubLimiter{result: domain.Admitted()},
		notifier:  &recordingNotifier{},
		scheduler: &recordingScheduler{},
	}
	var resolver ProviderResolver = &stubResolver{providers: map[domain.ProviderType]provider.Provider{
		domain.ProviderTypeConsole: env.provider,
	}}
	if o.resolver != nil {
		resolver = o.resolver
	}
	var decrypter ConfigDecrypter = plainDecrypter{}
	if o.decrypter != nil {
		decrypter = o.decrypter
	}
	env.pool = NewPool(cfg, env.queue, env.records, env.routes, resolver, decrypter,
		env.limiter, NewPayloadBuilder(memTemplates{}), env.notifier, env.scheduler, o.reg)
	return env
}

// memRecords 内存版的发送记录仓储，同时记下每条记录经历过的状态
type memRecords struct {
	mu       sync.Mutex
	nextID   int64
	records  map[int64]domain.MessageRecord
	statuses map[int64][]domain.SendStatus
	claimOK  bool
}

func newMemRecords() *memRecords {
	return &memRecords{
		records:  make(map[int64]domain.MessageRecord),
		statuses: make(map[int64][]domain.SendStatus),
		claimOK:  true,
	}
}

func (m *memRecords) add(r domain.MessageRecord) domain.MessageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.records[r.ID] = r
	return r
}

func (m *memRecords) get(id int64) domain.MessageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func (m *memRecords) history(id int64) []domain.SendStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SendStatus(nil), m.statuses[id]...)
}

func (m *memRecords) update(id int64, fn func(r *domain.MessageRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return errs.ErrRecordNotFound
	}
	fn(&r)
	m.records[id] = r
	m.statuses[id] = append(m.statuses[id], r.Status)
	return nil
}

func (m *memRecords) Create(_ context.Context, r domain.MessageRecord) (domain.MessageRecord, error) {
	return m.add(r), nil
}

func (m *memRecords) GetByID(_ context.Context, id int64) (domain.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return domain.MessageRecord{}, errs.ErrRecordNotFound
	}
	return r, nil
}

func (m *memRecords) MarkSending(_ context.Context, id int64) error {
	return m.update(id, func(r *domain.MessageRecord) { r.Status = domain.SendStatusSending })
}

func (m *memRecords) MarkSucceeded(_ context.Context, id int64, result domain.DeliveryResult) error {
	return m.update(id, func(r *domain.MessageRecord) {
		r.Status = domain.SendStatusSucceeded
		r.ProviderMessageID = result.ProviderMessageID
		r.ProviderResponse = result.RawResponse
	})
}

func (m *memRecords) MarkAwaitingRetry(_ context.Context, id int64, retryCount int, reason string) error {
	return m.update(id, func(r *domain.MessageRecord) {
		r.Status = domain.SendStatusAwaitingRetry
		r.RetryCount = retryCount
		r.FailureReason = reason
	})
}

func (m *memRecords) MarkFailed(_ context.Context, id int64, retryCount int, reason string) error {
	return m.update(id, func(r *domain.MessageRecord) {
		r.Status = domain.SendStatusFailed
		r.RetryCount = retryCount
		r.FailureReason = reason
	})
}

func (m *memRecords) ResetForManualRetry(_ context.Context, id int64) error {
	return m.update(id, func(r *domain.MessageRecord) {
		r.Status = domain.SendStatusPending
		r.RetryCount = 0
	})
}

func (m *memRecords) ClaimJob(_ context.Context, _ int64, _ string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimOK, nil
}

func (m *memRecords) FindStale(_ context.Context, _ time.Time, _ int) ([]domain.MessageRecord, error) {
	return nil, nil
}

func (m *memRecords) Touch(_ context.Context, _ []int64) error {
	return nil
}

type memRoutes struct {
	routes map[int64]domain.Route
}

func (m *memRoutes) GetByID(_ context.Context, id int64) (domain.Route, error) {
	r, ok := m.routes[id]
	if !ok {
		return domain.Route{}, errs.ErrRouteNotFound
	}
	return r, nil
}

func (m *memRoutes) ListActiveByType(_ context.Context, _ domain.MessageType) ([]domain.Route, error) {
	return nil, nil
}

type memTemplates struct{}

func (memTemplates) GetByCode(_ context.Context, code string) (domain.EmailTemplate, error) {
	return domain.EmailTemplate{}, errs.ErrTemplateNotFound
}

type stubResolver struct {
	providers map[domain.ProviderType]provider.Provider
}

func (s *stubResolver) Resolve(_ context.Context, _ int64, typ domain.ProviderType, _ string) (provider.Provider, error) {
	p, ok := s.providers[typ]
	if !ok {
		return nil, errs.ErrUnknownProvider
	}
	return p, nil
}

type plainDecrypter struct{}

func (plainDecrypter) DecryptIfNeeded(value string) (string, error) {
	return value, nil
}

type failingDecrypter struct{}

func (failingDecrypter) DecryptIfNeeded(string) (string, error) {
	return "", errors.New("cipher: message authentication failed")
}

// panicResolver 模拟在解析路由、初始化供应商之前的环节就崩溃
type panicResolver struct{}

func (panicResolver) Resolve(context.Context, int64, domain.ProviderType, string) (provider.Provider, error) {
	panic("resolver 崩溃")
}

type stubLimiter struct {
	mu     sync.Mutex
	result domain.AdmitResult
	err    error
	n      int
}

func (s *stubLimiter) CheckAndAdmit(_ context.Context, _ string) (domain.AdmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.result, s.err
}

func (s *stubLimiter) InvalidateCache() {}

func (s *stubLimiter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []domain.MessageRecord
}

func (r *recordingNotifier) Notify(_ context.Context, record domain.MessageRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingNotifier) all() []domain.MessageRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.MessageRecord(nil), r.records...)
}

// recordingScheduler 记下延迟，默认立刻执行；manual 模式下等测试调用 fire
type recordingScheduler struct {
	mu      sync.Mutex
	manual  bool
	pending []func()
	delayed []time.Duration
}

func (s *recordingScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	s.delayed = append(s.delayed, delay)
	if s.manual {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *recordingScheduler) Stop() {}

func (s *recordingScheduler) fire() {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *recordingScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.delayed) == 0 {
		return nil
	}
	return append([]time.Duration(nil), s.delayed...)
}
