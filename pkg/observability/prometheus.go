package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks exports hook events as Prometheus metrics. It implements
// RenderHooks, CacheHooks and HTTPHooks.
type PrometheusHooks struct {
	emitted        prometheus.Counter
	emitBytes      prometheus.Histogram
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	inflight       prometheus.Gauge
	cacheOps       *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	requests       *prometheus.CounterVec
	reqDuration    *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// It panics if a collector with the same name is already registered.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "dotgraph_emit_total",
			Help: "Total number of graphs serialized to DOT.",
		}),
		emitBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dotgraph_emit_bytes",
			Help:    "Size of emitted DOT documents in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dotgraph_renders_total",
			Help: "Total number of renderer invocations, labelled by engine, format and status.",
		}, []string{"engine", "format", "status"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dotgraph_render_duration_seconds",
			Help:    "Renderer invocation latency in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"engine"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "dotgraph_renders_inflight",
			Help: "Number of renderer invocations currently running.",
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dotgraph_cache_operations_total",
			Help: "Cache lookups and writes, labelled by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "dotgraph_cache_written_bytes_total",
			Help: "Total bytes written to the cache.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dotgraph_http_requests_total",
			Help: "HTTP requests served, labelled by method, route and status code.",
		}, []string{"method", "route", "code"}),
		reqDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dotgraph_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (p *PrometheusHooks) OnEmit(_ context.Context, _, _, size int, _ time.Duration) {
	p.emitted.Inc()
	p.emitBytes.Observe(float64(size))
}

func (p *PrometheusHooks) OnRenderStart(context.Context, string, string) {
	p.inflight.Inc()
}

func (p *PrometheusHooks) OnRenderComplete(_ context.Context, engine, format string, d time.Duration, err error) {
	p.inflight.Dec()
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.renders.WithLabelValues(engine, format, status).Inc()
	p.renderDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (p *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.reqDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ RenderHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
