package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	chunksIndexed   *prometheus.CounterVec
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "worker",
			Name:      "corpus_process_total",
			Help:      "Total processed corpus documents by dataset and status.",
		},
		[]string{"service", "dataset", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "worker",
			Name:      "corpus_process_duration_seconds",
			Help:      "Corpus processing duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medrag",
			Subsystem: "worker",
			Name:      "corpus_process_in_flight",
			Help:      "Number of in-flight corpus processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "worker",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks embedded and written to the vector index.",
		},
		[]string{"service", "dataset"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between corpus upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, chunksIndexed, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		chunksIndexed:   chunksIndexed,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service, dataset string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	if dataset == "" {
		dataset = "unknown"
	}

	m.processTotal.WithLabelValues(service, dataset, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordChunksIndexed(service, dataset string, count int) {
	if count <= 0 {
		return
	}
	if dataset == "" {
		dataset = "unknown"
	}
	m.chunksIndexed.WithLabelValues(service, dataset).Add(float64(count))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
