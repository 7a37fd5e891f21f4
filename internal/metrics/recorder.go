// Package metrics exposes batch and row counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the Prometheus implementation of core.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	batches        *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	rows           *prometheus.CounterVec
	lastBatchSent  prometheus.Gauge
	lastBatchTotal prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryreview_batches_total",
			Help: "Total number of batches by final phase.",
		}, []string{"phase"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salaryreview_batch_duration_seconds",
			Help:    "Duration of batches by final phase.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryreview_rows_total",
			Help: "Total rows processed by outcome and failing stage.",
		}, []string{"outcome", "stage"}),
		lastBatchSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salaryreview_last_batch_sent_rows",
			Help: "Rows sent by the most recent batch.",
		}),
		lastBatchTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salaryreview_last_batch_total_rows",
			Help: "Rows loaded by the most recent batch.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salaryreview_last_success_timestamp_seconds",
			Help: "Unix time the last batch finished in phase done.",
		}),
	}

	registry.MustRegister(r.batches)
	registry.MustRegister(r.batchDuration)
	registry.MustRegister(r.rows)
	registry.MustRegister(r.lastBatchSent)
	registry.MustRegister(r.lastBatchTotal)
	registry.MustRegister(r.lastSuccess)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordRow counts one processed row.
func (r *Recorder) RecordRow(outcome core.Outcome, stage core.Stage) {
	s := string(stage)
	if s == "" {
		s = "none"
	}
	r.rows.WithLabelValues(string(outcome), s).Inc()
}

// RecordBatch records a finished (or rejected) batch.
func (r *Recorder) RecordBatch(result *core.BatchResult, _ error) {
	if result == nil {
		return
	}
	phase := string(result.Phase)
	r.batches.WithLabelValues(phase).Inc()
	r.batchDuration.WithLabelValues(phase).Observe(result.Duration.Seconds())
	r.lastBatchSent.Set(float64(result.Sent))
	r.lastBatchTotal.Set(float64(result.Total))
	if result.Phase == core.PhaseDone {
		r.lastSuccess.Set(float64(result.StartedAt.Add(result.Duration).Unix()))
	}
}
