package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Default metrics configuration constants.
const (
	defaultPushJob = "scout"
)

// Run durations are in seconds; a run is dominated by the per-source fetch delay.
var defaultRunBuckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120} //nolint:gochecknoglobals // immutable bucket layout

// Manager manages all Prometheus metrics for a scout run.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	pushURL          string
	pushJob          string

	// Pipeline Metrics - What a digest run saw and kept
	itemsFetched   *prometheus.CounterVec
	itemsRejected  *prometheus.CounterVec
	itemsDuplicate prometheus.Counter
	itemsSelected  *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec

	// Delivery Metrics
	deliveries *prometheus.CounterVec

	// Registry Metrics
	registrySize prometheus.Gauge

	// Run Metrics
	runDuration     prometheus.Histogram
	lastSuccessUnix prometheus.Gauge

	// Alerts Monitor Metrics
	alertsEmailsScanned prometheus.Counter
	alertsStoriesFound  *prometheus.CounterVec
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "digest",
		histogramBuckets: defaultRunBuckets,
		pushJob:          defaultPushJob,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.itemsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_fetched_total",
		Help:      "Total number of items returned by sources",
	}, []string{"source"})

	m.itemsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_rejected_total",
		Help:      "Total number of items rejected by category thresholds",
	}, []string{"reason"})

	m.itemsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_duplicate_total",
		Help:      "Total number of items skipped because they were already reported",
	})

	m.itemsSelected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_selected_total",
		Help:      "Total number of items placed into a digest",
	}, []string{"source"})

	m.fetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Total number of failed source fetches",
	}, []string{"source"})

	m.deliveries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deliveries_total",
		Help:      "Delivery attempts by sink and outcome",
	}, []string{"sink", "outcome"})

	m.registrySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_size",
		Help:      "Number of identities currently held by the seen-item registry",
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of a complete run",
		Buckets:   m.histogramBuckets,
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last run that delivered its message",
	})

	m.alertsEmailsScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "alerts",
		Name:      "emails_scanned_total",
		Help:      "Total number of alert emails parsed",
	})

	m.alertsStoriesFound = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "alerts",
		Name:      "stories_found_total",
		Help:      "Stories that passed the score floor, by tier",
	}, []string{"tier"})
}

// RecordFetched adds n fetched items for source.
func (m *Manager) RecordFetched(source string, n int) {
	if m == nil {
		return
	}
	m.itemsFetched.WithLabelValues(source).Add(float64(n))
}

// RecordRejected counts one item rejected for reason.
func (m *Manager) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.itemsRejected.WithLabelValues(reason).Inc()
}

// RecordDuplicate counts one already-reported item.
func (m *Manager) RecordDuplicate() {
	if m == nil {
		return
	}
	m.itemsDuplicate.Inc()
}

// RecordSelected adds n selected items for source.
func (m *Manager) RecordSelected(source string, n int) {
	if m == nil {
		return
	}
	m.itemsSelected.WithLabelValues(source).Add(float64(n))
}

// RecordFetchError counts one failed fetch for source.
func (m *Manager) RecordFetchError(source string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(source).Inc()
}

// RecordDelivery counts one delivery attempt.
func (m *Manager) RecordDelivery(sink string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.deliveries.WithLabelValues(sink, outcome).Inc()
}

// UpdateRegistrySize sets the registry size gauge.
func (m *Manager) UpdateRegistrySize(n int) {
	if m == nil {
		return
	}
	m.registrySize.Set(float64(n))
}

// ObserveRun records the duration of a run and, when delivered, its completion time.
func (m *Manager) ObserveRun(d time.Duration, delivered bool, at time.Time) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
	if delivered {
		m.lastSuccessUnix.Set(float64(at.Unix()))
	}
}

// RecordAlertsScanned adds n parsed alert emails.
func (m *Manager) RecordAlertsScanned(n int) {
	if m == nil {
		return
	}
	m.alertsEmailsScanned.Add(float64(n))
}

// RecordAlertsStory counts one kept story in tier.
func (m *Manager) RecordAlertsStory(tier string) {
	if m == nil {
		return
	}
	m.alertsStoriesFound.WithLabelValues(tier).Inc()
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// PushEnabled reports whether a Pushgateway URL is configured.
func (m *Manager) PushEnabled() bool {
	return m != nil && m.pushURL != ""
}

// Push sends the current metric values to the configured Pushgateway.
func (m *Manager) Push(ctx context.Context) error {
	if !m.PushEnabled() {
		return ErrNoPushEndpoint
	}
	if err := push.New(m.pushURL, m.pushJob).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}

// Configure builds the process manager on its own registry, so the Go runtime
// collectors of the default registry are never gathered or pushed.
func Configure(opts ...Option) *Manager {
	opts = append(opts, WithPrometheusRegistry(prometheus.NewRegistry()))
	return NewManager(opts...)
}
