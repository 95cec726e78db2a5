package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

const namespace = "market"

// Metrics хранит метрики сервиса модерации. Все методы безопасны для nil-получателя,
// поэтому юзкейсы и тесты могут работать без метрик.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	TransitionFailures *prometheus.CounterVec
	ReportDecisions    *prometheus.CounterVec
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge

	registry *prometheus.Registry
}

// New регистрирует метрики в собственном реестре, чтобы несколько экземпляров
// (например, в тестах) не конфликтовали в глобальном.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listing",
				Name:      "transitions_total",
				Help:      "Applied listing status transitions",
			},
			[]string{"action", "from", "to"},
		),
		TransitionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listing",
				Name:      "transition_failures_total",
				Help:      "Rejected listing transition requests by error code",
			},
			[]string{"action", "code"},
		),
		ReportDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "decisions_total",
				Help:      "Report resolutions and dismissals",
			},
			[]string{"action", "outcome"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		registry: reg,
	}
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveTransition(action, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, from, to).Inc()
}

func (m *Metrics) ObserveTransitionFailure(action string, err error) {
	if m == nil || err == nil {
		return
	}
	m.TransitionFailures.WithLabelValues(action, string(apperror.CodeOf(err))).Inc()
}

func (m *Metrics) ObserveReportDecision(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperror.CodeOf(err))
	}
	m.ReportDecisions.WithLabelValues(action, outcome).Inc()
}
