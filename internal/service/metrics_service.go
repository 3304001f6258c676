package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the collectors the API
// reports into. A nil *MetricsService is a valid no-op recorder, which keeps
// metrics out of unit tests without stubbing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	activityWrites  *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec
	reportDuration  prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService builds a private registry with all collectors registered.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		activityWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_writes_total",
			Help: "Total activity record mutations by operation",
		}, []string{"operation", "activity_type"}),
		reportJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "report_jobs_total",
			Help: "Report job lifecycle events by outcome",
		}, []string{"outcome"}),
		reportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_generation_seconds",
			Help:    "Time spent generating report artifacts",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	return m
}

// Handler exposes the scrape endpoint for this registry.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records latency and a count for one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordActivityWrite counts a create, update or delete of an activity record.
func (m *MetricsService) RecordActivityWrite(operation, activityType string) {
	if m == nil {
		return
	}
	m.activityWrites.WithLabelValues(operation, activityType).Inc()
}

// RecordReportJob counts a job lifecycle event: submitted, completed, failed.
func (m *MetricsService) RecordReportJob(outcome string) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(outcome).Inc()
}

// ObserveReportGeneration records how long artifact generation took.
func (m *MetricsService) ObserveReportGeneration(duration time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
