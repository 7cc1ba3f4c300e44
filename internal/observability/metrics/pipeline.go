package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics covers the verification worker: one counter/histogram pair
// per pipeline stage plus an in-flight gauge and fraud outcome counters.
type PipelineMetrics struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	riskTotal     *prometheus.CounterVec
	indicators    *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idverify",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total pipeline stage executions by stage and status.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idverify",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by stage and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage", "status"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "idverify",
			Subsystem: "pipeline",
			Name:      "documents_in_flight",
			Help:      "Number of documents currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	riskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idverify",
			Subsystem: "fraud",
			Name:      "risk_level_total",
			Help:      "Fraud assessments by resulting risk level.",
		},
		[]string{"service", "risk_level"},
	)
	indicators := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idverify",
			Subsystem: "fraud",
			Name:      "indicators_per_document",
			Help:      "Number of fraud indicators raised per analyzed document.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 7, 10},
		},
		[]string{"service"},
	)

	registry.MustRegister(stageTotal, stageDuration, inFlight, riskTotal, indicators)

	return &PipelineMetrics{
		registry:      registry,
		stageTotal:    stageTotal,
		stageDuration: stageDuration,
		inFlight:      inFlight,
		riskTotal:     riskTotal,
		indicators:    indicators,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.inFlight.Inc()
}

func (m *PipelineMetrics) FinishStage(service, stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stageTotal.WithLabelValues(service, stage, status).Inc()
	m.stageDuration.WithLabelValues(service, stage, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) FinishDocument() {
	m.inFlight.Dec()
}

func (m *PipelineMetrics) ObserveFraudOutcome(service, riskLevel string, indicatorCount int) {
	m.riskTotal.WithLabelValues(service, riskLevel).Inc()
	m.indicators.WithLabelValues(service).Observe(float64(indicatorCount))
}
