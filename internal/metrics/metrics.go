// Package metrics exposes Prometheus collectors for report runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all PeakWatch collectors on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	LastRun       prometheus.Gauge
	Markets       *prometheus.GaugeVec
	Skipped       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Highlighted   prometheus.Gauge
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peakwatch_runs_total",
				Help: "Report runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "peakwatch_run_duration_seconds",
				Help:    "Wall time of a full report run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "peakwatch_last_run_timestamp_seconds",
				Help: "Unix time of the last completed report run",
			},
		),
		Markets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "peakwatch_markets",
				Help: "Markets seen in the last run by stage",
			},
			[]string{"stage"},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peakwatch_markets_skipped_total",
				Help: "Markets dropped from a run by reason",
			},
			[]string{"reason"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "peakwatch_fetch_duration_seconds",
				Help:    "Exchange request latency by endpoint",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Highlighted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "peakwatch_highlighted_markets",
				Help: "Markets at or below their 5% target in the last run",
			},
		),
	}
	r.reg.MustRegister(r.Runs, r.RunDuration, r.LastRun, r.Markets, r.Skipped, r.FetchDuration, r.Highlighted)
	return r
}

// Gatherer returns the underlying registry for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveFetch records the latency of one exchange request. Safe on a nil Registry.
func (r *Registry) ObserveFetch(endpoint string, started time.Time) {
	if r == nil {
		return
	}
	r.FetchDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// MarketSkipped counts one dropped market. Safe on a nil Registry.
func (r *Registry) MarketSkipped(reason string) {
	if r == nil {
		return
	}
	r.Skipped.WithLabelValues(reason).Inc()
}

// RunFinished records the outcome of a run. Safe on a nil Registry.
func (r *Registry) RunFinished(started time.Time, total, eligible, analyzed, highlighted int, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Runs.WithLabelValues(result).Inc()
	r.RunDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return
	}
	r.LastRun.SetToCurrentTime()
	r.Markets.WithLabelValues("listed").Set(float64(total))
	r.Markets.WithLabelValues("eligible").Set(float64(eligible))
	r.Markets.WithLabelValues("analyzed").Set(float64(analyzed))
	r.Highlighted.Set(float64(highlighted))
}
