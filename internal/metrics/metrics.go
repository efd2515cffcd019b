// Package metrics exposes Prometheus collectors for the staffing workflow.
// A nil *Manager is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

type Manager struct {
	namespace string
	registry  *prometheus.Registry

	transitions          *prometheus.CounterVec
	capacityRejections   prometheus.Counter
	fallbackWrites       *prometheus.CounterVec
	outboxPending        prometheus.Gauge
	outboxReplays        *prometheus.CounterVec
	notificationsEmitted *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
}

// NewManager registers every collector on a private registry unless one is
// supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "eventstaff",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.transitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "application_transitions_total",
		Help:      "Application status transitions applied, by source and target status",
	}, []string{"from", "to"})

	m.capacityRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "capacity_rejections_total",
		Help:      "Approvals refused because the function had no vacancies left",
	})

	m.fallbackWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fallback_writes_total",
		Help:      "Writes kept in the local cache because the backend was unavailable",
	}, []string{"kind", "op"})

	m.outboxPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "outbox_pending",
		Help:      "Intents waiting to be replayed against the backend",
	})

	m.outboxReplays = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "outbox_replays_total",
		Help:      "Outbox replay attempts, by operation and result",
	}, []string{"op", "result"})

	m.notificationsEmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "notifications_emitted_total",
		Help:      "Notifications persisted, by kind",
	}, []string{"kind"})

	m.notificationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "notification_failures_total",
		Help:      "Notification persistence or delivery failures, by stage",
	}, []string{"stage"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return m
}

func (m *Manager) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Manager) CapacityRejected() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}

func (m *Manager) FallbackWrite(kind, op string) {
	if m == nil {
		return
	}
	m.fallbackWrites.WithLabelValues(kind, op).Inc()
}

func (m *Manager) SetOutboxPending(n int) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(n))
}

func (m *Manager) OutboxReplayed(op, result string) {
	if m == nil {
		return
	}
	m.outboxReplays.WithLabelValues(op, result).Inc()
}

func (m *Manager) NotificationEmitted(kind string) {
	if m == nil {
		return
	}
	m.notificationsEmitted.WithLabelValues(kind).Inc()
}

func (m *Manager) NotificationFailed(stage string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(stage).Inc()
}

func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
