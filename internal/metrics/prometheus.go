// internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hostguard/internal/alerting"
)

// Prometheus metrics
var (
	UsagePercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hostguard_usage_percent",
			Help: "Last sampled usage percentage per metric",
		},
		[]string{"host", "metric"},
	)

	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostguard_ticks_total",
			Help: "Total sample-evaluate-sink cycles by outcome",
		},
		[]string{"outcome"},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostguard_tick_duration_seconds",
			Help:    "Time spent on one full tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostguard_alerts_total",
			Help: "Alert events produced, by metric",
		},
		[]string{"host", "metric"},
	)

	SampleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostguard_sample_errors_total",
			Help: "Failed samples by metric source",
		},
		[]string{"source"},
	)

	SinkRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostguard_sink_retries_total",
			Help: "Alert sink writes that had to be retried",
		},
	)

	SinkDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostguard_sink_dropped_total",
			Help: "Alert events lost after exhausting sink retries",
		},
	)

	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostguard_maintenance_runs_total",
			Help: "Maintenance action executions by action and status",
		},
		[]string{"action", "status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostguard_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

// Collector is the thin recording surface the scheduler and runner use so
// they do not reach into prometheus vars directly.
type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordSnapshot(snap alerting.Snapshot) {
	UsagePercent.WithLabelValues(snap.HostID, string(alerting.MetricDisk)).Set(float64(snap.DiskUsedPct))
	UsagePercent.WithLabelValues(snap.HostID, string(alerting.MetricMem)).Set(float64(snap.MemUsedPct))
	UsagePercent.WithLabelValues(snap.HostID, string(alerting.MetricCPU)).Set(float64(snap.CPUBusyPct))
}

func (c *Collector) RecordTick(outcome string, duration time.Duration) {
	TicksTotal.WithLabelValues(outcome).Inc()
	TickDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordAlert(event alerting.AlertEvent) {
	AlertsTotal.WithLabelValues(event.HostID, string(event.Metric)).Inc()
}

func (c *Collector) RecordSampleError(source string) {
	SampleErrors.WithLabelValues(source).Inc()
}

func (c *Collector) RecordSinkRetry() {
	SinkRetries.Inc()
}

func (c *Collector) RecordSinkDrop() {
	SinkDropped.Inc()
}

func (c *Collector) RecordMaintenanceRun(action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MaintenanceRuns.WithLabelValues(action, status).Inc()
}
