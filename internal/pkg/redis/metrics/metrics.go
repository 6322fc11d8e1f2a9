package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	successStatus = "success"
	errorStatus   = "error"
)

// Hook 实现了 redis.Hook 接口，限流窗口、去重键和分布式锁的 Redis 调用都会经过这里
type Hook struct {
	commandCounter   *prometheus.CounterVec
	commandDuration  *prometheus.SummaryVec
	pipelineCounter  *prometheus.CounterVec
	pipelineCommands prometheus.Counter
	pipelineDuration prometheus.Summary
	dialCounter      *prometheus.CounterVec
}

func NewMetricsHook(reg prometheus.Registerer) *Hook {
	objectives := map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001}
	h := &Hook{
		commandCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgpulse_redis_commands_total",
			Help: "Redis 命令执行次数",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "msgpulse_redis_command_duration_seconds",
			Help:       "Redis 命令耗时（秒）",
			Objectives: objectives,
		}, []string{"command"}),
		pipelineCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgpulse_redis_pipelines_total",
			Help: "Redis 管道执行次数",
		}, []string{"status"}),
		pipelineCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msgpulse_redis_pipeline_commands_total",
			Help: "Redis 管道里的命令总数",
		}),
		pipelineDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "msgpulse_redis_pipeline_duration_seconds",
			Help:       "Redis 管道耗时（秒）",
			Objectives: objectives,
		}),
		dialCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgpulse_redis_dials_total",
			Help: "Redis 建立连接次数",
		}, []string{"status"}),
	}
	reg.MustRegister(h.commandCounter, h.commandDuration, h.pipelineCounter,
		h.pipelineCommands, h.pipelineDuration, h.dialCounter)
	return h
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.commandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		// redis.Nil 是正常的未命中
		h.commandCounter.WithLabelValues(cmd.Name(), status(err)).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if len(cmds) == 0 {
			return next(ctx, cmds)
		}
		start := time.Now()
		err := next(ctx, cmds)
		h.pipelineDuration.Observe(time.Since(start).Seconds())
		h.pipelineCommands.Add(float64(len(cmds)))

		st := status(err)
		for _, cmd := range cmds {
			if status(cmd.Err()) == errorStatus {
				st = errorStatus
				break
			}
		}
		h.pipelineCounter.WithLabelValues(st).Inc()
		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		h.dialCounter.WithLabelValues(status(err)).Inc()
		return conn, err
	}
}

func status(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return errorStatus
	}
	return successStatus
}

// WithMetrics 为Redis客户端添加指标收集功能
func WithMetrics(client *redis.Client, reg prometheus.Registerer) *redis.Client {
	client.AddHook(NewMetricsHook(reg))
	return client
}
