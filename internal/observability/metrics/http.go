package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/healthquery/medical-rag/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal       *prometheus.CounterVec
	retrievalDuration    *prometheus.HistogramVec
	retrievalResults     *prometheus.HistogramVec
	retrievalScore       *prometheus.HistogramVec
	retrievalTierTotal   *prometheus.CounterVec
	retrievalEmptyTotal  *prometheus.CounterVec
	searchFallbackTotal  *prometheus.CounterVec
	uploadsTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total completed retrievals by query shape.",
		},
		[]string{"service", "concept", "complexity"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	retrievalResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "results_returned",
			Help:      "Distribution of results returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	retrievalScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "avg_combined_score",
			Help:      "Distribution of the per-request mean combined score.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"service"},
	)
	retrievalTierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "quality_tier_total",
			Help:      "Total completed retrievals by quality tier.",
		},
		[]string{"service", "tier"},
	)
	retrievalEmptyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "empty_total",
			Help:      "Total retrievals that returned no results.",
		},
		[]string{"service"},
	)
	searchFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "retrieval",
			Name:      "search_fallback_total",
			Help:      "Total retrievals that fell back to an unboosted search.",
		},
		[]string{"service"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "corpus",
			Name:      "uploads_total",
			Help:      "Total accepted corpus uploads by dataset.",
		},
		[]string{"service", "dataset"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalDuration,
		retrievalResults,
		retrievalScore,
		retrievalTierTotal,
		retrievalEmptyTotal,
		searchFallbackTotal,
		uploadsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		retrievalTotal:      retrievalTotal,
		retrievalDuration:   retrievalDuration,
		retrievalResults:    retrievalResults,
		retrievalScore:      retrievalScore,
		retrievalTierTotal:  retrievalTierTotal,
		retrievalEmptyTotal: retrievalEmptyTotal,
		searchFallbackTotal: searchFallbackTotal,
		uploadsTotal:        uploadsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/v1/corpus/stats":
		return path
	case strings.HasPrefix(path, "/v1/corpus/"):
		return "/v1/corpus/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRetrieval(service string, intent domain.Intent, report domain.RetrievalMetrics, duration time.Duration) {
	m.retrievalTotal.WithLabelValues(service, string(intent.PrimaryConcept), string(intent.Complexity)).Inc()
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.retrievalResults.WithLabelValues(service).Observe(float64(report.ResultsCount))
	m.retrievalTierTotal.WithLabelValues(service, string(report.QualityTier)).Inc()

	if report.ResultsCount == 0 {
		m.retrievalEmptyTotal.WithLabelValues(service).Inc()
		return
	}
	m.retrievalScore.WithLabelValues(service).Observe(report.AvgCombinedScore)
}

func (m *HTTPServerMetrics) RecordSearchFallback(service string) {
	m.searchFallbackTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordUpload(service, dataset string) {
	if dataset == "" {
		dataset = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, dataset).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
