package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结果标签
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics 履约链路指标（承运商调用、运单提交、物流同步）
type Metrics struct {
	gatherer       prometheus.Gatherer
	carrierCalls   *prometheus.CounterVec
	carrierLatency *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	trackingSyncs  *prometheus.CounterVec
	jobFailures    *prometheus.CounterVec
}

// New 在给定注册器上注册指标；reg 为空时返回的实例所有方法均为空操作
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	carrierCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_requests_total",
		Help: "Carrier API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	carrierLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrier_request_duration_seconds",
		Help:    "Carrier API call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_submissions_total",
		Help: "Shipment submission attempts by outcome.",
	}, []string{"outcome"})
	trackingSyncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_tracking_syncs_total",
		Help: "Tracking sync runs by result.",
	}, []string{"result"})
	jobFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_job_permanent_failures_total",
		Help: "Queue tasks that exhausted their retries.",
	}, []string{"task"})
	reg.MustRegister(carrierCalls, carrierLatency, submissions, trackingSyncs, jobFailures)
	return &Metrics{
		gatherer:       gatherer,
		carrierCalls:   carrierCalls,
		carrierLatency: carrierLatency,
		submissions:    submissions,
		trackingSyncs:  trackingSyncs,
		jobFailures:    jobFailures,
	}
}

// NewDefault 使用全局默认注册器
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// ObserveCarrierCall 记录一次承运商调用
func (m *Metrics) ObserveCarrierCall(operation string, duration time.Duration, err error) {
	if m == nil || m.carrierCalls == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	op := normalizeLabel(operation)
	m.carrierCalls.WithLabelValues(op, outcome).Inc()
	m.carrierLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// IncSubmission 记录运单提交结果（confirmed / retry / error / skipped / disabled）
func (m *Metrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTrackingSync 记录物流同步结果（changed / unchanged / failed）
func (m *Metrics) IncTrackingSync(result string) {
	if m == nil || m.trackingSyncs == nil {
		return
	}
	m.trackingSyncs.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncJobFailure 记录任务耗尽重试
func (m *Metrics) IncJobFailure(task string) {
	if m == nil || m.jobFailures == nil {
		return
	}
	m.jobFailures.WithLabelValues(normalizeLabel(task)).Inc()
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
