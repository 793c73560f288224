package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sale_analytics",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sale_analytics",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Scheduler / task metrics ───────────────────────────────────────────

var (
	TaskRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "task",
		Name:      "runs_total",
		Help:      "Total number of scheduled task runs.",
	}, []string{"task", "status"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sale_analytics",
		Subsystem: "task",
		Name:      "duration_seconds",
		Help:      "Duration of scheduled task runs in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"task"})

	TaskLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sale_analytics",
		Subsystem: "task",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful run per task.",
	}, []string{"task"})
)

// ── Snapshot / rollup metrics ──────────────────────────────────────────

var (
	SnapshotsCapturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "snapshot",
		Name:      "captured_total",
		Help:      "Total snapshots appended to the store.",
	})

	QuantityValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sale_analytics",
		Subsystem: "snapshot",
		Name:      "quantity_value",
		Help:      "Latest observed value per tracked quantity.",
	}, []string{"quantity"})

	RollupsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "rollup",
		Name:      "created_total",
		Help:      "Total daily rollups created.",
	})

	RollupsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "rollup",
		Name:      "skipped_total",
		Help:      "Daily rollup runs that created nothing.",
	}, []string{"reason"})
)

// ── Retention metrics ──────────────────────────────────────────────────

var (
	SnapshotsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "retention",
		Name:      "snapshots_deleted_total",
		Help:      "Total snapshots removed by the retention pass.",
	})

	MetricsArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "retention",
		Name:      "metrics_archived_total",
		Help:      "Total metric records archived by the retention pass.",
	})
)

// ── Purchase feed metrics ──────────────────────────────────────────────

var (
	PurchaseEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "feed",
		Name:      "purchase_events_total",
		Help:      "Total purchase events received on the websocket feed.",
	})

	FeedReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sale_analytics",
		Subsystem: "feed",
		Name:      "reconnects_total",
		Help:      "Total websocket feed reconnect attempts.",
	})
)
