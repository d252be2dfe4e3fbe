// Package metrics exposes Prometheus metrics for the analytics service.
// Collectors live on a private registry, served by Handler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eprosys"

// Metrics holds all application collectors
type Metrics struct {
	registry *prometheus.Registry

	feedFetches       *prometheus.CounterVec
	feedFetchDuration *prometheus.HistogramVec
	staleDiscards     *prometheus.CounterVec
	liveView          prometheus.Gauge

	snapshotBuilds   prometheus.Counter
	snapshotDuration prometheus.Histogram
	snapshotErrors   prometheus.Counter

	wsConnections    prometheus.Counter
	wsDisconnections prometheus.Counter
	wsActive         prometheus.Gauge
	wsMessages       prometheus.Counter
	wsErrors         prometheus.Counter

	refreshTriggers *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the process-wide metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a metrics set on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		feedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Feed fetches by feed and outcome",
		}, []string{"feed", "outcome"}),
		feedFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Time spent fetching a feed from the store",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"feed"}),
		staleDiscards: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_stale_discards_total",
			Help:      "Fetch results dropped because a newer fetch was issued",
		}, []string{"feed"}),
		liveView: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_view",
			Help:      "1 while the dashboard shows today's daily view and polling runs",
		}),

		snapshotBuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_builds_total",
			Help:      "Dashboard snapshots built",
		}),
		snapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_build_duration_seconds",
			Help:      "Time taken to build a dashboard snapshot",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		snapshotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Snapshots that could not be encoded",
		}),

		wsConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_connections_total",
			Help:      "WebSocket connections accepted",
		}),
		wsDisconnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_disconnections_total",
			Help:      "WebSocket connections closed",
		}),
		wsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections_active",
			Help:      "Currently connected dashboards",
		}),
		wsMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_total",
			Help:      "Messages written to dashboards",
		}),
		wsErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_errors_total",
			Help:      "WebSocket read and write errors",
		}),

		refreshTriggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_triggers_total",
			Help:      "External refresh triggers by source",
		}, []string{"source"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		startTime: time.Now(),
	}
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordFetch records one feed fetch
func (m *Metrics) RecordFetch(feed string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.feedFetches.WithLabelValues(feed, outcome).Inc()
	m.feedFetchDuration.WithLabelValues(feed).Observe(duration.Seconds())
}

// RecordStaleDiscard records a fetch result dropped for a newer generation
func (m *Metrics) RecordStaleDiscard(feed string) {
	m.staleDiscards.WithLabelValues(feed).Inc()
}

// SetLiveView flags whether polling is active
func (m *Metrics) SetLiveView(live bool) {
	if live {
		m.liveView.Set(1)
		return
	}
	m.liveView.Set(0)
}

// RecordSnapshot records a snapshot build
func (m *Metrics) RecordSnapshot(duration time.Duration) {
	m.snapshotBuilds.Inc()
	m.snapshotDuration.Observe(duration.Seconds())
}

// RecordSnapshotError increments the snapshot error counter
func (m *Metrics) RecordSnapshotError() {
	m.snapshotErrors.Inc()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.wsConnections.Inc()
	m.wsActive.Inc()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.wsDisconnections.Inc()
	m.wsActive.Dec()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.wsMessages.Inc()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.wsErrors.Inc()
}

// RecordRefreshTrigger counts an external refresh request
func (m *Metrics) RecordRefreshTrigger(source string) {
	m.refreshTriggers.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(route string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Uptime returns the time since the metrics were created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
