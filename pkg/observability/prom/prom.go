// Package prom implements the observability hooks on Prometheus collectors.
//
// A Metrics value owns its own registry so several instances (one per test,
// say) never collide on the global default registerer. Serve Handler on
// /metrics to expose it.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/crewboard/pkg/observability"
)

const namespace = "crewboard"

// Metrics records pipeline, cache, store and HTTP events.
type Metrics struct {
	registry *prometheus.Registry

	layoutDuration *prometheus.HistogramVec
	layoutNodes    *prometheus.HistogramVec
	renderDuration *prometheus.HistogramVec
	pipelineErrors *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Duration of layout computations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"viz_type"}),
		layoutNodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Number of diagram nodes per layout.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"viz_type"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of artifact rendering.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"formats"}),
		pipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Failed layout and render stages.",
		}, []string{"stage"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"key_type"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Diagram store operations by backend, operation and outcome.",
		}, []string{"backend", "op", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of diagram store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of served HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.layoutDuration, m.layoutNodes, m.renderDuration, m.pipelineErrors,
		m.cacheLookups, m.cacheBytes,
		m.storeOps, m.storeDuration,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Register installs m as every global observability hook.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// OnLayoutStart records the size of the diagram being laid out.
func (m *Metrics) OnLayoutStart(_ context.Context, vizType string, nodeCount int) {
	m.layoutNodes.WithLabelValues(vizType).Observe(float64(nodeCount))
}

// OnLayoutComplete records layout latency and failures.
func (m *Metrics) OnLayoutComplete(_ context.Context, vizType string, d time.Duration, err error) {
	m.layoutDuration.WithLabelValues(vizType).Observe(d.Seconds())
	if err != nil {
		m.pipelineErrors.WithLabelValues("layout").Inc()
	}
}

// OnRenderStart is a no-op; rendering is measured on completion.
func (m *Metrics) OnRenderStart(context.Context, []string) {}

// OnRenderComplete records render latency and failures.
func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	m.renderDuration.WithLabelValues(strings.Join(formats, ",")).Observe(d.Seconds())
	if err != nil {
		m.pipelineErrors.WithLabelValues("render").Inc()
	}
}

// OnCacheHit counts a hit.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss counts a miss.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet counts written bytes.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnStoreOp records a store operation.
func (m *Metrics) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storeOps.WithLabelValues(backend, op, outcome).Inc()
	m.storeDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// OnRequest records a served HTTP request.
func (m *Metrics) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.StoreHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
