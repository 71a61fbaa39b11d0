// Package metrics holds the Prometheus metrics of the service in a private registry.
//
// All Collector methods are safe to call on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snaplist"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomePartial = "partial"
	OutcomeEmpty   = "empty"
)

// Collector holds all metrics of one process.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	resolutions     *prometheus.CounterVec
	titles          prometheus.Histogram
	videosResolved  prometheus.Counter
	searchFailures  prometheus.Counter
	historyFailures prometheus.Counter
	exports         *prometheus.CounterVec
	itemsAppended   prometheus.Counter
}

// NewCollector creates a collector with its own registry, including Go runtime and process metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Image resolutions by mode and outcome",
		}, []string{"mode", "outcome"}),
		titles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "titles_per_image",
			Help:      "Normalized titles extracted per image",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		videosResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_resolved_total",
			Help:      "Videos returned to callers",
		}),
		searchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_failures_total",
			Help:      "Per-title searches that failed and were dropped",
		}),
		historyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_write_failures_total",
			Help:      "History records that could not be persisted",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_exports_total",
			Help:      "Playlist exports by outcome",
		}, []string{"outcome"}),
		itemsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_items_appended_total",
			Help:      "Playlist items appended across all exports",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.resolutions,
		c.titles,
		c.videosResolved,
		c.searchFailures,
		c.historyFailures,
		c.exports,
		c.itemsAppended,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RegisterCacheStats exposes cache hit and miss totals read from stats on each scrape.
func (c *Collector) RegisterCacheStats(stats func() (hits, misses int64)) {
	if c == nil {
		return
	}
	c.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of search cache hits",
		}, func() float64 { h, _ := stats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of search cache misses",
		}, func() float64 { _, m := stats(); return float64(m) }),
	)
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveResolution records one finished image resolution.
func (c *Collector) ObserveResolution(mode, outcome string, titles, videos int) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(mode, outcome).Inc()
	c.titles.Observe(float64(titles))
	c.videosResolved.Add(float64(videos))
}

func (c *Collector) SearchFailed() {
	if c == nil {
		return
	}
	c.searchFailures.Inc()
}

func (c *Collector) HistoryWriteFailed() {
	if c == nil {
		return
	}
	c.historyFailures.Inc()
}

// ObserveExport records one playlist export and the items it appended.
func (c *Collector) ObserveExport(outcome string, appended int) {
	if c == nil {
		return
	}
	c.exports.WithLabelValues(outcome).Inc()
	c.itemsAppended.Add(float64(appended))
}
