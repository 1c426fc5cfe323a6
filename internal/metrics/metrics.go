package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the pipeline's collectors on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	RowsPulled      prometheus.Counter
	RowsExtracted   prometheus.Counter
	RowsDropped     *prometheus.CounterVec // by failure kind
	RowsLoaded      prometheus.Counter
	CleaningWarns   prometheus.Counter
	LoadFailures    prometheus.Counter
	RefreshFailures prometheus.Counter
	RunsSkipped     prometheus.Counter
	RunDurationSec  *prometheus.HistogramVec // by outcome
	LastSuccessUnix prometheus.Gauge
	Observations    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	pulled := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_rows_pulled_total"})
	extracted := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_rows_extracted_total"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "catalog_etl_rows_dropped_total"}, []string{"kind"})
	loaded := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_rows_loaded_total"})
	warns := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_cleaning_warnings_total"})
	loadFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_load_failures_total"})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_refresh_failures_total"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_etl_runs_skipped_total"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_etl_run_duration_seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
	}, []string{"outcome"})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{Name: "catalog_etl_last_success_timestamp_seconds"})
	observations := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_observations_ingested_total"})

	r.MustRegister(pulled, extracted, dropped, loaded, warns, loadFailures, refreshFailures, skipped, duration, lastSuccess, observations)
	return &Registry{
		reg:             r,
		RowsPulled:      pulled,
		RowsExtracted:   extracted,
		RowsDropped:     dropped,
		RowsLoaded:      loaded,
		CleaningWarns:   warns,
		LoadFailures:    loadFailures,
		RefreshFailures: refreshFailures,
		RunsSkipped:     skipped,
		RunDurationSec:  duration,
		LastSuccessUnix: lastSuccess,
		Observations:    observations,
	}
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
