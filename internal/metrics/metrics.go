package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TrialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routesim_trials_total",
			Help: "Per-AS outcomes recorded across completed trials, by label, plane and outcome.",
		},
		[]string{"label", "plane", "outcome"},
	)

	TrialDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routesim_trial_duration_seconds",
			Help:    "Wall-clock time to run and analyze a single trial.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
		},
		[]string{"label"},
	)

	ConvergenceRounds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routesim_convergence_rounds",
			Help:    "Propagation rounds executed before a trial reached a fixed point.",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 12, 20, 32},
		},
		[]string{"label"},
	)

	TrialErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routesim_trial_errors_total",
			Help: "Trials that failed to construct or run, by label.",
		},
		[]string{"label", "reason"},
	)

	SinkWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routesim_sink_write_duration_seconds",
			Help:    "Latency writing a trial outcome to an output sink.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"sink"},
	)

	SinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routesim_sink_errors_total",
			Help: "Failed writes to an output sink.",
		},
		[]string{"sink"},
	)

	CampaignProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routesim_campaign_trials_completed",
			Help: "Trials completed so far in the running campaign.",
		},
		[]string{"label"},
	)
)

var registerOnce sync.Once

// Register registers all routesim collectors with the default
// Prometheus registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TrialsTotal,
			TrialDuration,
			ConvergenceRounds,
			TrialErrorsTotal,
			SinkWriteDuration,
			SinkErrorsTotal,
			CampaignProgress,
		)
	})
}
