// Package telemetry exposes monitoring state over HTTP: Prometheus metrics
// plus JSON endpoints for the latest verdict and the alert log.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the Prometheus instruments for the confidence pipeline.
// It implements monitor.TickObserver.
type Metrics struct {
	registry *prometheus.Registry

	ConfidenceCorrelation prometheus.Gauge
	AlertsTotal           *prometheus.CounterVec
	TicksTotal            prometheus.Counter
	ScreeningPairs        *prometheus.GaugeVec
	ScreeningDuration     prometheus.Histogram
	SectorExposure        *prometheus.GaugeVec
	LedgerPredictions     prometheus.Gauge
}

// NewMetrics builds and registers all instruments on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ConfidenceCorrelation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pairscreen_confidence_correlation",
				Help: "Latest prediction-outcome correlation observed by the monitor",
			},
		),

		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairscreen_alerts_total",
				Help: "Total monitor alerts by severity",
			},
			[]string{"severity"},
		),

		TicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pairscreen_monitor_ticks_total",
				Help: "Total monitor ticks that observed a verdict",
			},
		),

		ScreeningPairs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairscreen_screening_pairs",
				Help: "Pairs selected in the most recent screening run by tier",
			},
			[]string{"tier"},
		),

		ScreeningDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pairscreen_screening_duration_seconds",
				Help:    "Wall time of screening runs in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
		),

		SectorExposure: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairscreen_sector_exposure",
				Help: "Current portfolio exposure fraction by sector",
			},
			[]string{"sector"},
		),

		LedgerPredictions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pairscreen_ledger_predictions",
				Help: "Pair predictions currently retained in the ledger",
			},
		),
	}

	m.registry.MustRegister(
		m.ConfidenceCorrelation,
		m.AlertsTotal,
		m.TicksTotal,
		m.ScreeningPairs,
		m.ScreeningDuration,
		m.SectorExposure,
		m.LedgerPredictions,
	)

	log.Debug().Msg("Prometheus metrics registered")
	return m
}

// ObserveVerdict records the correlation seen on a monitor tick.
func (m *Metrics) ObserveVerdict(correlation float64) {
	m.ConfidenceCorrelation.Set(correlation)
	m.TicksTotal.Inc()
}

// ObserveAlert counts a raised alert by severity.
func (m *Metrics) ObserveAlert(severity string) {
	m.AlertsTotal.WithLabelValues(severity).Inc()
}

// RecordScreening publishes tier counts and run duration for a screening run.
func (m *Metrics) RecordScreening(premium, standard, backup int, seconds float64) {
	m.ScreeningPairs.WithLabelValues("premium").Set(float64(premium))
	m.ScreeningPairs.WithLabelValues("standard").Set(float64(standard))
	m.ScreeningPairs.WithLabelValues("backup").Set(float64(backup))
	m.ScreeningDuration.Observe(seconds)
}

// RecordLedgerDepth publishes the number of retained pair predictions.
func (m *Metrics) RecordLedgerDepth(n int) {
	m.LedgerPredictions.Set(float64(n))
}

// RecordSectorExposure publishes one sector's exposure fraction.
func (m *Metrics) RecordSectorExposure(sector string, exposure float64) {
	m.SectorExposure.WithLabelValues(sector).Set(exposure)
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
