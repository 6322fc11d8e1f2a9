//go:build unit

package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/pkg/queue"
	repomocks "gitee.com/flycash/msgpulse/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestTask_Recover(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	stale := []domain.MessageRecord{
		{ID: 1, TaskID: "t1", MessageType: domain.MessageTypeSMS, Status: domain.SendStatusPending},
		{ID: 2, TaskID: "t2", MessageType: domain.MessageTypeEmail, Status: domain.SendStatusAwaitingRetry, RetryCount: 2},
	}
	testCases := []struct {
		name      string
		batchSize int
		mock      func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository
		queueCap  int
		closeQ    bool

		wantErr   error
		wantJobs  []int64
		wantSleep bool
	}{
		{
			name:      "重新入队并刷新",
			batchSize: 10,
			mock: func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository {
				repo := repomocks.NewMockMessageRecordRepository(ctrl)
				repo.EXPECT().FindStale(gomock.Any(), now.Add(-10*time.Minute), 10).Return(stale, nil)
				repo.EXPECT().Touch(gomock.Any(), []int64{1, 2}).Return(nil)
				return repo
			},
			queueCap:  10,
			wantJobs:  []int64{1, 2},
			wantSleep: true,
		},
		{
			name:      "满批次不休息",
			batchSize: 2,
			mock: func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository {
				repo := repomocks.NewMockMessageRecordRepository(ctrl)
				repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 2).Return(stale, nil)
				repo.EXPECT().Touch(gomock.Any(), []int64{1, 2}).Return(nil)
				return repo
			},
			queueCap: 10,
			wantJobs: []int64{1, 2},
		},
		{
			name:      "没有滞留记录",
			batchSize: 10,
			mock: func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository {
				repo := repomocks.NewMockMessageRecordRepository(ctrl)
				repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 10).Return(nil, nil)
				return repo
			},
			queueCap:  10,
			wantSleep: true,
		},
		{
			name:      "查询失败",
			batchSize: 10,
			mock: func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository {
				repo := repomocks.NewMockMessageRecordRepository(ctrl)
				repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 10).Return(nil, errors.New("db down"))
				return repo
			},
			queueCap:  10,
			wantErr:   errors.New("db down"),
			wantSleep: true,
		},
		{
			name:      "队列关闭时只刷新已入队的",
			batchSize: 10,
			mock: func(ctrl *gomock.Controller) *repomocks.MockMessageRecordRepository {
				repo := repomocks.NewMockMessageRecordRepository(ctrl)
				repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 10).Return(stale, nil)
				return repo
			},
			queueCap:  10,
			closeQ:    true,
			wantSleep: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			q := queue.NewBoundedQueue[domain.Job](tc.queueCap)
			if tc.closeQ {
				q.Close()
			}
			task := NewTask(nil, tc.mock(ctrl), q, Config{Enabled: true, BatchSize: tc.batchSize})
			task.now = func() time.Time { return now }
			slept := false
			task.sleep = func(ctx context.Context, d time.Duration) {
				assert.Equal(t, 30*time.Second, d)
				slept = true
			}

			err := task.Recover(t.Context())
			assert.Equal(t, tc.wantErr, err)
			assert.Equal(t, tc.wantSleep, slept)

			var got []int64
			if !tc.closeQ {
				for q.Len() > 0 {
					job, ok := q.Dequeue(t.Context())
					assert.True(t, ok)
					assert.Equal(t, now, job.EnqueuedAt)
					got = append(got, job.RecordID)
				}
			}
			assert.Equal(t, tc.wantJobs, got)
		})
	}
}

func TestTask_Disabled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	task := NewTask(nil, repomocks.NewMockMessageRecordRepository(ctrl), queue.NewBoundedQueue[domain.Job](1), Config{})
	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	// 未开启时直接返回，不会去抢锁
	task.Start(ctx)
	assert.NoError(t, ctx.Err())
}
