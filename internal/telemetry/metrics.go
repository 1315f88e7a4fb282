package telemetry

import (
	"net/http"
	"time"

	"github.com/maxbolgarin/perftrend/internal/collector"
	"github.com/maxbolgarin/perftrend/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perftrend"

var _ collector.Recorder = (*Metrics)(nil)

// Metrics holds pipeline metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	setFormats    *prometheus.GaugeVec

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRunTime   prometheus.Gauge
	commitsTotal  prometheus.Gauge
	setsFailed    prometheus.Gauge
	commitsNoData prometheus.Gauge
}

// New creates metrics registered on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_fetches_total",
			Help:      "Total number of record fetches by set and outcome",
		}, []string{"set", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_fetch_duration_seconds",
			Help:      "Duration of record fetches",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"set"}),
		setFormats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "set_format_info",
			Help:      "Record format detected for a set, 1 for the current format",
		}, []string{"set", "format"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		commitsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "commits",
			Help:      "Number of commits in the last run",
		}),
		setsFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sets_failed",
			Help:      "Number of sets with an unrecognized record format in the last run",
		}),
		commitsNoData: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "commits_without_data",
			Help:      "Number of commits with zero datapoints in the last run",
		}),
	}

	m.registry.MustRegister(
		m.fetchesTotal,
		m.fetchDuration,
		m.setFormats,
		m.runsTotal,
		m.runDuration,
		m.lastRunTime,
		m.commitsTotal,
		m.setsFailed,
		m.commitsNoData,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(set, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(set, outcome).Inc()
	m.fetchDuration.WithLabelValues(set).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFormat(set string, format model.Format) {
	if m == nil {
		return
	}
	m.setFormats.DeletePartialMatch(prometheus.Labels{"set": set})
	m.setFormats.WithLabelValues(set, string(format)).Set(1)
}

// RunStats summarizes a finished pipeline run
type RunStats struct {
	Elapsed       time.Duration
	Commits       int
	FailedSets    int
	CommitsNoData int
	Err           error
}

// ObserveRun records a finished pipeline run
func (m *Metrics) ObserveRun(stats RunStats) {
	if m == nil {
		return
	}
	m.runDuration.Observe(stats.Elapsed.Seconds())
	if stats.Err != nil {
		m.runsTotal.WithLabelValues("error").Inc()
		return
	}
	m.runsTotal.WithLabelValues("success").Inc()
	m.lastRunTime.SetToCurrentTime()
	m.commitsTotal.Set(float64(stats.Commits))
	m.setsFailed.Set(float64(stats.FailedSets))
	m.commitsNoData.Set(float64(stats.CommitsNoData))
}
