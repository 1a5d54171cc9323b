// Package metrics 定义服务的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合，使用独立的 Registry
type Metrics struct {
	registry    *prometheus.Registry
	replies     *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
}

// New 创建并注册指标
func New() *Metrics {
	reg := prometheus.NewRegistry()

	replies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessly",
		Subsystem: "chat",
		Name:      "replies_total",
		Help:      "Chat replies by handler source and reply type.",
	}, []string{"source", "type"})

	llmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assessly",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Duration of individual generation requests by outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15},
	}, []string{"outcome"})

	reg.MustRegister(
		replies,
		llmDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{registry: reg, replies: replies, llmDuration: llmDuration}
}

// ObserveReply 记录一次回复
func (m *Metrics) ObserveReply(source, replyType string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(source, replyType).Inc()
}

// ObserveLLM 记录一次生成请求耗时
func (m *Metrics) ObserveLLM(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
