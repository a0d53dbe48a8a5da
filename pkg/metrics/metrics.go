// Package metrics implements the [observability] hooks on top of Prometheus.
//
// A [Collector] owns its own registry so that several instances (one per
// test, say) never clash on metric names. Register it at startup and expose
// [Collector.Handler] on the server's /metrics route:
//
//	m := metrics.New("stackaudit")
//	observability.SetAuditHooks(m)
//	observability.SetCacheHooks(m)
//	observability.SetHTTPHooks(m)
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stackaudit/pkg/observability"
)

// DefaultNamespace prefixes every metric name when New gets "".
const DefaultNamespace = "stackaudit"

// Collector records audit, cache and HTTP client events.
type Collector struct {
	registry *prometheus.Registry

	resolves        *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	resolvedArts    prometheus.Histogram
	packages        *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	audits          *prometheus.CounterVec
	auditDuration   prometheus.Histogram
	vulnerable      prometheus.Counter

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// New creates a collector with a fresh registry that also carries the
// standard Go runtime and process collectors.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "resolve", Name: "total",
			Help: "Root resolutions by outcome.",
		}, []string{"status"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "resolve", Name: "duration_seconds",
			Help:    "Time spent resolving one root.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		resolvedArts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "resolve", Name: "artifacts",
			Help:    "Artifacts returned per successful resolution.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		packages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "collector", Name: "packages_registered_total",
			Help: "Packages registered with a batch.",
		}, []string{"ecosystem", "kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "collector", Name: "packages_skipped_total",
			Help: "Resolved packages not registered, by reason.",
		}, []string{"reason"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit", Name: "runs_total",
			Help: "Batch audit runs by outcome.",
		}, []string{"status"}),
		auditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "audit", Name: "duration_seconds",
			Help:    "Time spent in one batch audit run.",
			Buckets: prometheus.DefBuckets,
		}),
		vulnerable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit", Name: "vulnerable_packages_total",
			Help: "Packages reported with at least one vulnerability.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "operations_total",
			Help: "Cache lookups and writes.",
		}, []string{"type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "requests_total",
			Help: "Outgoing HTTP requests by host and status code.",
		}, []string{"method", "host", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "request_duration_seconds",
			Help:    "Outgoing HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http_client", Name: "errors_total",
			Help: "Outgoing HTTP requests that failed before a response.",
		}, []string{"method", "host"}),
	}

	reg.MustRegister(
		c.resolves, c.resolveDuration, c.resolvedArts,
		c.packages, c.skipped,
		c.audits, c.auditDuration, c.vulnerable,
		c.cacheOps, c.cacheBytes,
		c.httpRequests, c.httpDuration, c.httpErrors,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// =============================================================================
// Audit Hooks
// =============================================================================

func (c *Collector) OnResolveStart(context.Context, string) {}

func (c *Collector) OnResolveComplete(_ context.Context, _ string, artifacts int, d time.Duration, err error) {
	c.resolves.WithLabelValues(status(err)).Inc()
	c.resolveDuration.Observe(d.Seconds())
	if err == nil {
		c.resolvedArts.Observe(float64(artifacts))
	}
}

func (c *Collector) OnPackageRegistered(_ context.Context, ecosystem string, transitive bool) {
	kind := "root"
	if transitive {
		kind = "transitive"
	}
	c.packages.WithLabelValues(ecosystem, kind).Inc()
}

func (c *Collector) OnPackageSkipped(_ context.Context, reason string) {
	c.skipped.WithLabelValues(reason).Inc()
}

func (c *Collector) OnAuditStart(context.Context, int) {}

func (c *Collector) OnAuditComplete(_ context.Context, _, vulnerable int, d time.Duration, err error) {
	c.audits.WithLabelValues(status(err)).Inc()
	c.auditDuration.Observe(d.Seconds())
	c.vulnerable.Add(float64(vulnerable))
}

// =============================================================================
// Cache Hooks
// =============================================================================

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
	c.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTP Hooks
// =============================================================================

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, host, _ string, code int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, host, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, host, _ string, _ error) {
	c.httpErrors.WithLabelValues(method, host).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.AuditHooks = (*Collector)(nil)
	_ observability.CacheHooks = (*Collector)(nil)
	_ observability.HTTPHooks  = (*Collector)(nil)
)
