package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorInterface(t *testing.T) {
	t.Parallel()

	// Verify that both implementations satisfy Collector
	var _ Collector = (*prometheusCollector)(nil)
	var _ Collector = (*NoopCollector)(nil)
}

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	require.NotNil(t, collector)
	assert.IsType(t, &prometheusCollector{}, collector)
}

func TestNoopCollector(t *testing.T) {
	t.Parallel()

	collector := NewNoopCollector()
	require.NotNil(t, collector)

	ctx := context.Background()

	// All methods should not panic
	assert.NotPanics(t, func() {
		collector.RecordCycleDuration(ctx, "success", time.Second)
		collector.RecordObservedResources(ctx, "ingress", 5)
		collector.RecordDesiredRecords(ctx, 10)
		collector.RecordActualRecords(ctx, 12)
		collector.RecordPlanActions(ctx, "add", 2)
		collector.RecordActionApplied(ctx, "add", "success")
		collector.RecordAPICall(ctx, "GET", "records", "success", time.Second)
		collector.RecordAPIError(ctx, "GET", "auth")
		collector.RecordWatchEvent(ctx, "service", "added")
		collector.RecordWatchError(ctx, "service")
	})
}

func TestMetricsRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	// Trigger all metrics to be collected at least once
	collector.RecordCycleDuration(ctx, "success", time.Second)
	collector.RecordObservedResources(ctx, "ingress", 1)
	collector.RecordDesiredRecords(ctx, 1)
	collector.RecordActualRecords(ctx, 1)
	collector.RecordPlanActions(ctx, "add", 1)
	collector.RecordActionApplied(ctx, "add", "success")
	collector.RecordAPICall(ctx, "GET", "records", "success", time.Second)
	collector.RecordAPIError(ctx, "GET", "test")
	collector.RecordWatchEvent(ctx, "service", "added")
	collector.RecordWatchError(ctx, "service")

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	expectedMetrics := []string{
		"cfdns_cycle_duration_seconds",
		"cfdns_observed_resources",
		"cfdns_desired_records",
		"cfdns_actual_records",
		"cfdns_plan_actions",
		"cfdns_actions_applied_total",
		"cfdns_cloudflare_api_duration_seconds",
		"cfdns_cloudflare_api_calls_total",
		"cfdns_cloudflare_api_errors_total",
		"cfdns_watch_events_total",
		"cfdns_watch_errors_total",
	}

	registeredMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		registeredMetrics[mf.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		assert.True(t, registeredMetrics[expected], "metric %s should be registered", expected)
	}
}

func TestRecordCycleDuration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordCycleDuration(ctx, "success", time.Second)

	count := testutil.CollectAndCount(collector.cycleDuration)
	assert.Equal(t, 1, count)
}

func TestRecordPlanActions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordPlanActions(ctx, "add", 3)
	collector.RecordPlanActions(ctx, "delete", 1)

	addCount := testutil.ToFloat64(collector.planActions.WithLabelValues("add"))
	deleteCount := testutil.ToFloat64(collector.planActions.WithLabelValues("delete"))

	assert.Equal(t, float64(3), addCount)
	assert.Equal(t, float64(1), deleteCount)
}

func TestRecordActionApplied(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordActionApplied(ctx, "add", "success")
	collector.RecordActionApplied(ctx, "add", "success")
	collector.RecordActionApplied(ctx, "add", "error")

	successCount := testutil.ToFloat64(collector.actionsTotal.WithLabelValues("add", "success"))
	errorCount := testutil.ToFloat64(collector.actionsTotal.WithLabelValues("add", "error"))

	assert.Equal(t, float64(2), successCount)
	assert.Equal(t, float64(1), errorCount)
}

func TestRecordWatchEvent(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordWatchEvent(ctx, "service", "added")
	collector.RecordWatchEvent(ctx, "service", "added")
	collector.RecordWatchEvent(ctx, "ingress", "deleted")

	serviceAdds := testutil.ToFloat64(collector.watchEventsTotal.WithLabelValues("service", "added"))
	ingressDeletes := testutil.ToFloat64(collector.watchEventsTotal.WithLabelValues("ingress", "deleted"))

	assert.Equal(t, float64(2), serviceAdds)
	assert.Equal(t, float64(1), ingressDeletes)
}
