package ioc

import (
	"fmt"
	"os"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"gitee.com/flycash/msgpulse/internal/pkg/crypto"
	"gitee.com/flycash/msgpulse/internal/pkg/queue"
	"gitee.com/flycash/msgpulse/internal/pkg/ratelimit"
	"gitee.com/flycash/msgpulse/internal/repository"
	"gitee.com/flycash/msgpulse/internal/service/callback"
	"gitee.com/flycash/msgpulse/internal/service/dispatch"
	"gitee.com/flycash/msgpulse/internal/service/provider"
	"gitee.com/flycash/msgpulse/internal/service/recovery"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	"github.com/prometheus/client_golang/prometheus"
)

type dispatchConfig struct {
	WorkerCount   int      `yaml:"workerCount"`
	QueueCapacity int      `yaml:"queueCapacity"`
	MaxAttempts   int      `yaml:"maxAttempts"`
	Backoff       []string `yaml:"backoff"`
	Claim         struct {
		Enabled bool   `yaml:"enabled"`
		Lease   string `yaml:"lease"`
	} `yaml:"claim"`
}

func loadDispatchConfig() dispatchConfig {
	var cfg dispatchConfig
	if err := econf.UnmarshalKey("dispatch", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func InitQueue() *queue.BoundedQueue[domain.Job] {
	return queue.NewBoundedQueue[domain.Job](loadDispatchConfig().QueueCapacity)
}

func InitPool(
	q *queue.BoundedQueue[domain.Job],
	records repository.MessageRecordRepository,
	routes repository.RouteRepository,
	registry *provider.Registry,
	cipher *crypto.Cipher,
	limiter *ratelimit.SlidingWindowLimiter,
	payloads *dispatch.PayloadBuilder,
	notifier *callback.HTTPNotifier,
) *dispatch.Pool {
	raw := loadDispatchConfig()
	cfg := dispatch.Config{
		WorkerCount: raw.WorkerCount,
		MaxAttempts: raw.MaxAttempts,
		Backoff:     parseDurations("dispatch.backoff", raw.Backoff, dispatch.DefaultBackoff),
		Claim: dispatch.ClaimConfig{
			Enabled:  raw.Claim.Enabled,
			Lease:    parseDuration("dispatch.claim.lease", raw.Claim.Lease, time.Minute),
			WorkerID: workerID(),
		},
	}
	return dispatch.NewPool(cfg, q, records, routes, registry, cipher, limiter, payloads, notifier,
		dispatch.NewTimerScheduler(), prometheus.DefaultRegisterer)
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func InitCallbackNotifier() *callback.HTTPNotifier {
	return callback.NewHTTPNotifier(parseDuration("callback.timeout", econf.GetString("callback.timeout"), callback.DefaultTimeout))
}

func InitRecoveryTask(dclient dlock.Client, records repository.MessageRecordRepository, pool *dispatch.Pool) *recovery.Task {
	type Config struct {
		Enabled    bool   `yaml:"enabled"`
		StaleAfter string `yaml:"staleAfter"`
		BatchSize  int    `yaml:"batchSize"`
		Interval   string `yaml:"interval"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("recovery", &cfg); err != nil {
		panic(err)
	}
	return recovery.NewTask(dclient, records, pool, recovery.Config{
		Enabled:    cfg.Enabled,
		StaleAfter: parseDuration("recovery.staleAfter", cfg.StaleAfter, 10*time.Minute),
		BatchSize:  cfg.BatchSize,
		Interval:   parseDuration("recovery.interval", cfg.Interval, 30*time.Second),
	})
}
