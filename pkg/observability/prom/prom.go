// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/tabula/pkg/observability"
)

const namespace = "tabula"

// Collector records pipeline, cache and HTTP events as Prometheus metrics.
type Collector struct {
	fetchDuration *prometheus.HistogramVec
	fetchBytes    prometheus.Counter

	parseDuration *prometheus.HistogramVec
	parseRecords  *prometheus.CounterVec

	buildDuration *prometheus.HistogramVec
	buildTargets  prometheus.Counter
	buildPoints   prometheus.Counter

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	httpResponses *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpErrors    *prometheus.CounterVec
}

// New creates a Collector and registers its metrics with reg. It panics if
// the metrics are already registered, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source fetches, cache hits included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes of source data fetched.",
		}),
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Duration of converting source data into records.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"mime_type", "outcome"}),
		parseRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_records_total",
			Help:      "Records produced from source data.",
		}, []string{"mime_type"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of target builds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"outcome"}),
		buildTargets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_targets_total",
			Help:      "Target series produced by successful builds.",
		}),
		buildPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_points_total",
			Help:      "Points produced by successful builds.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_responses_total",
			Help:      "Responses received by the source fetcher.",
		}, []string{"method", "host", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_duration_seconds",
			Help:      "Round-trip time of fetcher requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_errors_total",
			Help:      "Transport failures of fetcher requests.",
		}, []string{"method", "host"}),
	}
	reg.MustRegister(
		c.fetchDuration, c.fetchBytes,
		c.parseDuration, c.parseRecords,
		c.buildDuration, c.buildTargets, c.buildPoints,
		c.cacheEvents, c.cacheBytes,
		c.httpResponses, c.httpDuration, c.httpErrors,
	)
	return c
}

// Register installs c as the pipeline, cache and HTTP hooks.
func (c *Collector) Register() {
	observability.SetPipelineHooks(c)
	observability.SetCacheHooks(c)
	observability.SetHTTPHooks(c)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) OnFetchStart(context.Context, string) {}

func (c *Collector) OnFetchComplete(_ context.Context, _ string, bytes int, d time.Duration, err error) {
	c.fetchDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
	if err == nil {
		c.fetchBytes.Add(float64(bytes))
	}
}

func (c *Collector) OnParseStart(context.Context, string) {}

func (c *Collector) OnParseComplete(_ context.Context, mimeType string, records int, d time.Duration, err error) {
	c.parseDuration.WithLabelValues(mimeType, outcome(err)).Observe(d.Seconds())
	if err == nil {
		c.parseRecords.WithLabelValues(mimeType).Add(float64(records))
	}
}

func (c *Collector) OnBuildStart(context.Context, int) {}

func (c *Collector) OnBuildComplete(_ context.Context, targets, points int, d time.Duration, err error) {
	c.buildDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
	if err == nil {
		c.buildTargets.Add(float64(targets))
		c.buildPoints.Add(float64(points))
	}
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.cacheEvents.WithLabelValues(keyType, "set").Inc()
	c.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, host, _ string, statusCode int, d time.Duration) {
	c.httpResponses.WithLabelValues(method, host, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, host, _ string, _ error) {
	c.httpErrors.WithLabelValues(method, host).Inc()
}

var (
	_ observability.PipelineHooks = (*Collector)(nil)
	_ observability.CacheHooks    = (*Collector)(nil)
	_ observability.HTTPHooks     = (*Collector)(nil)
)
