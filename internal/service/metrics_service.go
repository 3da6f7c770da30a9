package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/liceo-academic-api/internal/grading"
	"github.com/noah-isme/liceo-academic-api/internal/models"
)

// MetricsService owns the Prometheus registry of the API. A nil
// *MetricsService is valid and records nothing.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	recomputations   *prometheus.CounterVec
	progressionPaths *prometheus.CounterVec
	enrollBuckets    *prometheus.CounterVec
	reportDuration   *prometheus.HistogramVec
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	recomputations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_recomputations_total",
		Help: "Final grade recomputations by resulting state",
	}, []string{"state"})

	progressionPaths := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "progression_paths_total",
		Help: "Resolved progression paths",
	}, []string{"path"})

	enrollBuckets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subject_enrollment_requests_total",
		Help: "Requested subject enrollments by outcome bucket",
	}, []string{"bucket"})

	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_render_seconds",
		Help:    "Time spent building and rendering documents",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, cacheWrite,
		recomputations, progressionPaths, enrollBuckets, reportDuration, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLookups:     cacheLookups,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		recomputations:   recomputations,
		progressionPaths: progressionPaths,
		enrollBuckets:    enrollBuckets,
		reportDuration:   reportDuration,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRecomputation counts a final grade recomputation.
func (m *MetricsService) RecordRecomputation(state models.SubjectEnrollmentState) {
	if m == nil {
		return
	}
	m.recomputations.WithLabelValues(string(state)).Inc()
}

// RecordProgression counts a resolved progression path.
func (m *MetricsService) RecordProgression(path grading.Path) {
	if m == nil {
		return
	}
	m.progressionPaths.WithLabelValues(string(path)).Inc()
}

// RecordEnrollmentBuckets counts the outcome of subject enrollment requests.
func (m *MetricsService) RecordEnrollmentBuckets(result *EnrollSubjectsResult) {
	if m == nil || result == nil {
		return
	}
	m.enrollBuckets.WithLabelValues("inserted").Add(float64(len(result.Inserted)))
	m.enrollBuckets.WithLabelValues("duplicate").Add(float64(len(result.Duplicate)))
	m.enrollBuckets.WithLabelValues("already_passed").Add(float64(len(result.AlreadyPassed)))
	m.enrollBuckets.WithLabelValues("not_offered").Add(float64(len(result.NotOffered)))
}

// ObserveReport records document build time.
func (m *MetricsService) ObserveReport(kind string, format models.ReportFormat, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(kind, string(format)).Observe(duration.Seconds())
}
