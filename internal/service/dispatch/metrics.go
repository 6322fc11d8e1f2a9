package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 每个 job 被 worker 处理之后的去向
const (
	outcomeSucceeded   = "succeeded"
	outcomeRetry       = "retry"
	outcomeFailed      = "failed"
	outcomeSkipped     = "skipped"
	outcomeRateLimited = "rate_limited"
	outcomeError       = "error"
)

type poolMetrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

func newPoolMetrics(reg prometheus.Registerer, depth func() float64) *poolMetrics {
	m := &poolMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msgpulse_dispatch_jobs_total",
			Help: "worker 处理的 job 数量，按结果区分",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "msgpulse_dispatch_job_duration_seconds",
			Help:    "worker 处理单个 job 的耗时",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	if reg == nil {
		return m
	}
	reg.MustRegister(m.outcomes, m.duration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "msgpulse_dispatch_queue_depth",
			Help: "队列里等待处理的 job 数量",
		}, depth))
	return m
}

func (m *poolMetrics) observe(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}
