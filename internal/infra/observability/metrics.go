package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

const namespace = "backoffice"

// Metrics holds all Prometheus metrics for the backoffice BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	accessDenied      *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	auditRecords      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of service operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_errors_total",
				Help:      "Total failed calls to the backoffice API.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total query cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total query cache misses.",
			},
			[]string{"cache"},
		),
		accessDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "access_denied_total",
				Help:      "Actions refused because the user lacks the capability.",
			},
			[]string{"capability"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications pushed to backoffice users.",
			},
			[]string{"level"},
		),
		auditRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_records_total",
				Help:      "Audit entries recorded by action.",
			},
			[]string{"action"},
		),
	}
}

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(operation string) {
	m.externalErrors.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAccessDenied counts an action refused by the permission gate.
func (m *Metrics) IncrAccessDenied(capability string) {
	m.accessDenied.WithLabelValues(capability).Inc()
}

// IncrNotification counts a pushed notification.
func (m *Metrics) IncrNotification(level string) {
	m.notifications.WithLabelValues(level).Inc()
}

// IncrAudit counts a recorded audit entry.
func (m *Metrics) IncrAudit(action string) {
	m.auditRecords.WithLabelValues(action).Inc()
}

// Snapshot returns the operational counters served by
// GET /v1/metrics/summary.
func (m *Metrics) Snapshot() *domain.OperationalMetrics {
	hits := sum(m.counterByLabel("cache_hits_total", "cache"))
	misses := sum(m.counterByLabel("cache_misses_total", "cache"))

	rate := float64(0)
	if hits+misses > 0 {
		rate = hits / (hits + misses)
	}

	return &domain.OperationalMetrics{
		CacheHitRate:        rate,
		AccessDenied:        m.counterByLabel("access_denied_total", "capability"),
		ExternalErrors:      sum(m.counterByLabel("external_errors_total", "operation")),
		NotificationsByKind: m.counterByLabel("notifications_total", "level"),
	}
}

// CounterValue returns the current value of counter name for one label
// value. Used by tests to assert on side effects.
func (m *Metrics) CounterValue(name, labelValue string) float64 {
	var cv *prometheus.CounterVec
	switch name {
	case "external_errors_total":
		cv = m.externalErrors
	case "cache_hits_total":
		cv = m.cacheHits
	case "cache_misses_total":
		cv = m.cacheMisses
	case "access_denied_total":
		cv = m.accessDenied
	case "notifications_total":
		cv = m.notifications
	case "audit_records_total":
		cv = m.auditRecords
	default:
		return 0
	}
	return getCounterValue(cv, labelValue)
}

// counterByLabel gathers a counter family from the registry and returns its
// values keyed by the given label.
func (m *Metrics) counterByLabel(name, label string) map[string]float64 {
	out := make(map[string]float64)
	families, err := m.Registry.Gather()
	if err != nil {
		return out
	}
	full := namespace + "_" + name
	for _, f := range families {
		if f.GetName() != full {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label {
					out[lp.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return out
}

func sum(m map[string]float64) float64 {
	total := float64(0)
	for _, v := range m {
		total += v
	}
	return total
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
