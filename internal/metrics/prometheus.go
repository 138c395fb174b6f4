package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Data-sync metrics
	SyncFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxdesk_sync_fetches_total",
			Help: "Total number of collection fetches",
		},
		[]string{"collection", "status"}, // status: success|error|discarded
	)

	SyncFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxdesk_sync_fetch_duration_seconds",
			Help:    "Collection fetch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"collection"},
	)

	SyncItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fxdesk_sync_items",
			Help: "Number of items in the last applied snapshot",
		},
		[]string{"collection"},
	)

	ChangeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxdesk_change_events_total",
			Help: "Change notifications received per table",
		},
		[]string{"table"},
	)

	// Analysis metrics
	AnalysisTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxdesk_analysis_triggers_total",
			Help: "Total number of analysis triggers",
		},
		[]string{"kind", "status"}, // kind: pair|market; status: success|error|busy
	)

	AnalysisAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxdesk_analysis_api_latency_seconds",
			Help:    "Analysis service call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend", "endpoint"},
	)

	// System metrics
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxdesk_websocket_connections",
			Help: "Open change-stream websocket connections",
		},
	)

	ActiveWorkspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxdesk_active_workspaces",
			Help: "Signed-in users with live collections",
		},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SyncFetches)
		prometheus.MustRegister(SyncFetchDuration)
		prometheus.MustRegister(SyncItems)
		prometheus.MustRegister(ChangeEvents)

		prometheus.MustRegister(AnalysisTriggers)
		prometheus.MustRegister(AnalysisAPILatency)

		prometheus.MustRegister(WebSocketConnections)
		prometheus.MustRegister(ActiveWorkspaces)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one collection fetch
func RecordFetch(collection string, duration time.Duration, items int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	SyncFetches.WithLabelValues(collection, status).Inc()
	SyncFetchDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err == nil {
		SyncItems.WithLabelValues(collection).Set(float64(items))
	}
}

// RecordDiscardedFetch records a response dropped as stale
func RecordDiscardedFetch(collection string) {
	SyncFetches.WithLabelValues(collection, "discarded").Inc()
}

// RecordChangeEvent records a change notification
func RecordChangeEvent(table string) {
	ChangeEvents.WithLabelValues(table).Inc()
}

// RecordAnalysisTrigger records an analysis trigger outcome
func RecordAnalysisTrigger(kind, status string) {
	AnalysisTriggers.WithLabelValues(kind, status).Inc()
}

// RecordAnalysisCall records a call to the analysis service
func RecordAnalysisCall(backend, endpoint string, latency time.Duration) {
	AnalysisAPILatency.WithLabelValues(backend, endpoint).Observe(latency.Seconds())
}
