// Package metrics exposes Prometheus instrumentation for the price service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects service metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	forecasts    *prometheus.CounterVec
	lastForecast *prometheus.GaugeVec
	syncs        *prometheus.CounterVec
	rowsSaved    prometheus.Counter
	trainingRows prometheus.Gauge
	modelScore   prometheus.Gauge
	events       *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_forecasts_total",
				Help: "Forecast requests by outcome",
			},
			[]string{"status"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mandi_last_forecast_price",
				Help: "First-day forecast price of the latest request per crop and mandi",
			},
			[]string{"crop", "mandi"},
		),
		syncs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_syncs_total",
				Help: "Sync attempts by status",
			},
			[]string{"status"},
		),
		rowsSaved: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mandi_rows_saved_total",
				Help: "Price records newly appended to the store",
			},
		),
		trainingRows: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mandi_model_training_rows",
				Help: "Feature rows used by the current model",
			},
		),
		modelScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mandi_model_mae",
				Help: "Mean absolute error of the current model on its test partition",
			},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_events_total",
				Help: "Kafka events by type and result",
			},
			[]string{"type", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandi_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mandi_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast counts a forecast request outcome
func (r *Recorder) RecordForecast(status string) {
	if r == nil {
		return
	}
	r.forecasts.WithLabelValues(status).Inc()
}

// RecordForecastPrice records the first forecast price for a pair
func (r *Recorder) RecordForecastPrice(crop, mandi string, price float64) {
	if r == nil {
		return
	}
	r.lastForecast.WithLabelValues(crop, mandi).Set(price)
}

// RecordSync counts a sync outcome and the rows it appended
func (r *Recorder) RecordSync(status string, rowsSaved int64) {
	if r == nil {
		return
	}
	r.syncs.WithLabelValues(status).Inc()
	if rowsSaved > 0 {
		r.rowsSaved.Add(float64(rowsSaved))
	}
}

// RecordTraining records the shape and quality of a freshly trained model
func (r *Recorder) RecordTraining(rows int, score float64, took time.Duration) {
	if r == nil {
		return
	}
	r.trainingRows.Set(float64(rows))
	r.modelScore.Set(score)
	r.latency.WithLabelValues("train").Observe(took.Seconds())
}

// RecordEvent counts a consumed or published event
func (r *Recorder) RecordEvent(eventType, result string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(eventType, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, took time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(took.Seconds())
}
