// Package metrics provides Prometheus metrics instrumentation for the controller.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
type Collector interface {
	// Reconciliation metrics
	RecordCycleDuration(ctx context.Context, status string, duration time.Duration)
	RecordObservedResources(ctx context.Context, kind string, count int)
	RecordDesiredRecords(ctx context.Context, count int)
	RecordActualRecords(ctx context.Context, count int)
	RecordPlanActions(ctx context.Context, action string, count int)
	RecordActionApplied(ctx context.Context, action, status string)

	// Cloudflare API metrics
	RecordAPICall(ctx context.Context, method, resource, status string, duration time.Duration)
	RecordAPIError(ctx context.Context, method, errorType string)

	// Watch producer metrics
	RecordWatchEvent(ctx context.Context, kind, eventType string)
	RecordWatchError(ctx context.Context, kind string)
}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	// Reconciliation metrics
	cycleDuration  *prometheus.HistogramVec
	observedTotal  *prometheus.GaugeVec
	desiredRecords prometheus.Gauge
	actualRecords  prometheus.Gauge
	planActions    *prometheus.GaugeVec
	actionsTotal   *prometheus.CounterVec

	// Cloudflare API metrics
	apiDuration    *prometheus.HistogramVec
	apiCallsTotal  *prometheus.CounterVec
	apiErrorsTotal *prometheus.CounterVec

	// Watch producer metrics
	watchEventsTotal *prometheus.CounterVec
	watchErrorsTotal *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{}
	c.initReconcileMetrics()
	c.initAPIMetrics()
	c.initWatchMetrics()
	c.register(reg)

	return c
}

// RecordCycleDuration records the duration of one reconciliation cycle.
func (c *prometheusCollector) RecordCycleDuration(_ context.Context, status string, duration time.Duration) {
	c.cycleDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordObservedResources records the number of cached resources by kind.
func (c *prometheusCollector) RecordObservedResources(_ context.Context, kind string, count int) {
	c.observedTotal.WithLabelValues(kind).Set(float64(count))
}

// RecordDesiredRecords records the size of the computed desired record set.
func (c *prometheusCollector) RecordDesiredRecords(_ context.Context, count int) {
	c.desiredRecords.Set(float64(count))
}

// RecordActualRecords records the number of records the zone reported.
func (c *prometheusCollector) RecordActualRecords(_ context.Context, count int) {
	c.actualRecords.Set(float64(count))
}

// RecordPlanActions records the size of the computed plan by action type.
func (c *prometheusCollector) RecordPlanActions(_ context.Context, action string, count int) {
	c.planActions.WithLabelValues(action).Set(float64(count))
}

// RecordActionApplied records the outcome of one applied plan action.
func (c *prometheusCollector) RecordActionApplied(_ context.Context, action, status string) {
	c.actionsTotal.WithLabelValues(action, status).Inc()
}

// RecordAPICall records a Cloudflare API call.
func (c *prometheusCollector) RecordAPICall(
	_ context.Context,
	method, resource, status string,
	duration time.Duration,
) {
	c.apiDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
	c.apiCallsTotal.WithLabelValues(method, resource, status).Inc()
}

// RecordAPIError records a Cloudflare API error.
func (c *prometheusCollector) RecordAPIError(_ context.Context, method, errorType string) {
	c.apiErrorsTotal.WithLabelValues(method, errorType).Inc()
}

// RecordWatchEvent records a watch event applied to the cache.
func (c *prometheusCollector) RecordWatchEvent(_ context.Context, kind, eventType string) {
	c.watchEventsTotal.WithLabelValues(kind, eventType).Inc()
}

// RecordWatchError records a failed or closed watch stream.
func (c *prometheusCollector) RecordWatchError(_ context.Context, kind string) {
	c.watchErrorsTotal.WithLabelValues(kind).Inc()
}

func (c *prometheusCollector) initReconcileMetrics() {
	c.cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfdns_cycle_duration_seconds",
			Help:    "Duration of DNS reconciliation cycles",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)
	c.observedTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cfdns_observed_resources",
			Help: "Number of cached cluster resources by kind",
		},
		[]string{"kind"},
	)
	c.desiredRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfdns_desired_records",
			Help: "Size of the computed desired record set",
		},
	)
	c.actualRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfdns_actual_records",
			Help: "Number of records reported by the zone",
		},
	)
	c.planActions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cfdns_plan_actions",
			Help: "Size of the last computed plan by action",
		},
		[]string{"action"},
	)
	c.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdns_actions_applied_total",
			Help: "Total plan actions applied by action and outcome",
		},
		[]string{"action", "status"},
	)
}

func (c *prometheusCollector) initAPIMetrics() {
	c.apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfdns_cloudflare_api_duration_seconds",
			Help:    "Duration of Cloudflare API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "resource"},
	)
	c.apiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdns_cloudflare_api_calls_total",
			Help: "Total Cloudflare API calls",
		},
		[]string{"method", "resource", "status"},
	)
	c.apiErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdns_cloudflare_api_errors_total",
			Help: "Total Cloudflare API errors by type",
		},
		[]string{"method", "error_type"},
	)
}

func (c *prometheusCollector) initWatchMetrics() {
	c.watchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdns_watch_events_total",
			Help: "Total watch events applied to the resource cache",
		},
		[]string{"kind", "event"},
	)
	c.watchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdns_watch_errors_total",
			Help: "Total failed or closed watch streams by kind",
		},
		[]string{"kind"},
	)
}

func (c *prometheusCollector) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.cycleDuration,
		c.observedTotal,
		c.desiredRecords,
		c.actualRecords,
		c.planActions,
		c.actionsTotal,
		c.apiDuration,
		c.apiCallsTotal,
		c.apiErrorsTotal,
		c.watchEventsTotal,
		c.watchErrorsTotal,
	)
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordCycleDuration is a no-op.
func (c *NoopCollector) RecordCycleDuration(_ context.Context, _ string, _ time.Duration) {}

// RecordObservedResources is a no-op.
func (c *NoopCollector) RecordObservedResources(_ context.Context, _ string, _ int) {}

// RecordDesiredRecords is a no-op.
func (c *NoopCollector) RecordDesiredRecords(_ context.Context, _ int) {}

// RecordActualRecords is a no-op.
func (c *NoopCollector) RecordActualRecords(_ context.Context, _ int) {}

// RecordPlanActions is a no-op.
func (c *NoopCollector) RecordPlanActions(_ context.Context, _ string, _ int) {}

// RecordActionApplied is a no-op.
func (c *NoopCollector) RecordActionApplied(_ context.Context, _, _ string) {}

// RecordAPICall is a no-op.
func (c *NoopCollector) RecordAPICall(_ context.Context, _, _, _ string, _ time.Duration) {}

// RecordAPIError is a no-op.
func (c *NoopCollector) RecordAPIError(_ context.Context, _, _ string) {}

// RecordWatchEvent is a no-op.
func (c *NoopCollector) RecordWatchEvent(_ context.Context, _, _ string) {}

// RecordWatchError is a no-op.
func (c *NoopCollector) RecordWatchError(_ context.Context, _ string) {}
