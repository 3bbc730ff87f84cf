// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forcegraph"

// Metrics holds every collector. It satisfies the renderer, pipeline, cache
// and HTTP hook interfaces of the observability package.
type Metrics struct {
	RendersScheduled prometheus.Counter
	RendersTotal     *prometheus.CounterVec
	RendersSkipped   prometheus.Counter
	Resets           prometheus.Counter
	RenderDuration   prometheus.Histogram
	PendingRenders   prometheus.Gauge
	SceneNodes       prometheus.Gauge
	SceneEdges       prometheus.Gauge

	LayoutDuration prometheus.Histogram
	ExportsTotal   *prometheus.CounterVec

	CacheOps *prometheus.CounterVec

	FetchRequests *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RendersScheduled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_scheduled_total",
			Help:      "Render tasks queued.",
		}),
		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render tasks that ran, by outcome.",
		}, []string{"status"}),
		RendersSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_skipped_total",
			Help:      "Superseded render tasks dropped.",
		}),
		Resets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Scene group replacements.",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Layout plus reconcile time of one render task.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PendingRenders: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_renders",
			Help:      "Render tasks waiting in the most recently active queue.",
		}),
		SceneNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_render_nodes",
			Help:      "Node count of the last rendered snapshot.",
		}),
		SceneEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_render_edges",
			Help:      "Edge count of the last rendered snapshot.",
		}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Offline layout computation time.",
			Buckets:   prometheus.DefBuckets,
		}),
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Artifact exports by format and outcome.",
		}, []string{"format", "status"}),
		CacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type.",
		}, []string{"key_type", "op"}),
		FetchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Outgoing background fetches by host and status.",
		}, []string{"host", "status"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Outgoing background fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Renderer hooks

func (m *Metrics) OnRenderScheduled(_ context.Context, pending int) {
	m.RendersScheduled.Inc()
	m.PendingRenders.Set(float64(pending))
}

func (m *Metrics) OnRenderComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	m.RendersTotal.WithLabelValues(status(err)).Inc()
	m.RenderDuration.Observe(d.Seconds())
	if err == nil {
		m.SceneNodes.Set(float64(nodes))
		m.SceneEdges.Set(float64(edges))
	}
}

func (m *Metrics) OnRenderSkipped(context.Context) { m.RendersSkipped.Inc() }

func (m *Metrics) OnReset(context.Context) { m.Resets.Inc() }

// Pipeline hooks

func (m *Metrics) OnLayoutStart(context.Context, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, d time.Duration, err error) {
	if err == nil {
		m.LayoutDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) OnExportStart(context.Context, []string) {}

func (m *Metrics) OnExportComplete(_ context.Context, formats []string, _ time.Duration, err error) {
	for _, f := range formats {
		m.ExportsTotal.WithLabelValues(f, status(err)).Inc()
	}
}

// Cache hooks

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheOps.WithLabelValues(keyType, "set").Inc()
}

// HTTP client hooks

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.FetchRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.FetchRequests.WithLabelValues(host, "error").Inc()
}

// Middleware records request counts and latency for an HTTP handler.
// route names the handler's pattern so labels stay bounded.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			name := route(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack lets WebSocket upgrades pass through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot hijack", r.ResponseWriter)
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
