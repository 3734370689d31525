// Package driver implements the cross-trial concurrency model (spec
// §5): a bounded worker pool runs the cross product of adoption
// percentages and trial indices, each trial on its own freshly built
// topology.Graph and Scenario so trials never share mutable state.
package driver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/routesim/bgpsim/internal/analyzer"
	"github.com/routesim/bgpsim/internal/engine"
	"github.com/routesim/bgpsim/internal/metrics"
	"github.com/routesim/bgpsim/internal/scenario"
	"github.com/routesim/bgpsim/internal/topology"
)

// GraphFactory returns a fresh, unseeded topology.Graph for one trial.
// Implementations typically parse a CAIDA relationship file once at
// startup and return a deep copy per call so concurrent trials never
// alias AS state.
type GraphFactory func() (*topology.Graph, error)

// ScenarioFactory builds the Config for one trial. label identifies
// the scenario family (e.g. "prefix-hijack"); trial is the zero-based
// repetition index within that family and adoption percentage.
type ScenarioFactory func(label string, trial int) scenario.Config

// RunConfig parameterizes one driver invocation: every (Label, percent,
// trial) triple in the cross product of Labels × AdoptionPercents ×
// [0, TrialsPerPoint) is run as an independent job.
type RunConfig struct {
	Labels            []string
	AdoptionPercents  []float64
	TrialsPerPoint    int
	PropagationRounds int
	Workers           int
	NewGraph          GraphFactory
	NewScenario       ScenarioFactory
	Sink              Sink
	Logger            *zap.Logger
}

// TrialOutcome is the result of one completed trial, the unit
// internal/persist and Sink deal in.
type TrialOutcome struct {
	Label           string
	AdoptionPercent float64
	Trial           int
	Rounds          int
	Result          analyzer.Result
}

// Sink receives completed trial outcomes as they finish. Implementations
// must be safe for concurrent use — Run calls Write from every worker.
type Sink interface {
	Write(ctx context.Context, outcome TrialOutcome) error
}

type job struct {
	label   string
	percent float64
	trial   int
}

// Run executes every job in the cross product across a bounded worker
// pool and returns all outcomes. Output is independent of Workers: the
// same input always produces the same outcome set, just reordered.
func Run(ctx context.Context, cfg RunConfig) ([]TrialOutcome, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan job)
	results := make(chan TrialOutcome)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			runWorker(ctx, cfg, jobs, results, errs, logger)
		}()
	}

	go func() {
		defer close(jobs)
		for _, label := range cfg.Labels {
			for _, pct := range cfg.AdoptionPercents {
				for t := 0; t < cfg.TrialsPerPoint; t++ {
					select {
					case jobs <- job{label: label, percent: pct, trial: t}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []TrialOutcome
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}

	select {
	case err := <-errs:
		return outcomes, err
	default:
	}
	return outcomes, ctx.Err()
}

func runWorker(ctx context.Context, cfg RunConfig, jobs <-chan job, results chan<- TrialOutcome, errs chan<- error, logger *zap.Logger) {
	for j := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		outcome, err := runTrial(ctx, cfg, j)
		if err != nil {
			metrics.TrialErrorsTotal.WithLabelValues(j.label, "run_failed").Inc()
			logger.Error("trial failed",
				zap.String("label", j.label),
				zap.Float64("adoption_percent", j.percent),
				zap.Int("trial", j.trial),
				zap.Error(err),
			)
			select {
			case errs <- err:
			default:
			}
			continue
		}
		metrics.TrialDuration.WithLabelValues(j.label).Observe(time.Since(start).Seconds())
		metrics.ConvergenceRounds.WithLabelValues(j.label).Observe(float64(outcome.Rounds))
		for _, o := range outcome.Result.ControlPlane {
			metrics.TrialsTotal.WithLabelValues(j.label, "control", o.String()).Inc()
		}
		for _, o := range outcome.Result.DataPlane {
			metrics.TrialsTotal.WithLabelValues(j.label, "data", o.String()).Inc()
		}
		metrics.CampaignProgress.WithLabelValues(j.label).Inc()

		if cfg.Sink != nil {
			sinkStart := time.Now()
			if err := cfg.Sink.Write(ctx, outcome); err != nil {
				metrics.SinkErrorsTotal.WithLabelValues("configured").Inc()
				logger.Error("trial sink write failed",
					zap.String("label", j.label),
					zap.Error(err),
				)
			} else {
				metrics.SinkWriteDuration.WithLabelValues("configured").Observe(time.Since(sinkStart).Seconds())
			}
		}

		select {
		case results <- outcome:
		case <-ctx.Done():
			return
		}
	}
}

func runTrial(ctx context.Context, cfg RunConfig, j job) (TrialOutcome, error) {
	g, err := cfg.NewGraph()
	if err != nil {
		return TrialOutcome{}, err
	}

	sc, err := scenario.New(cfg.NewScenario(j.label, j.trial))
	if err != nil {
		return TrialOutcome{}, err
	}
	if err := sc.SetupEngine(g, j.percent, nil); err != nil {
		return TrialOutcome{}, err
	}

	rounds := cfg.PropagationRounds
	if rounds <= 0 {
		rounds = 1
	}
	e := engine.New(g)
	round := 0
	for ; round < rounds; round++ {
		if ctx.Err() != nil {
			return TrialOutcome{}, ctx.Err()
		}
		changed, err := e.Run(round, sc)
		if err != nil {
			return TrialOutcome{}, err
		}
		sc.PostPropagationHook(g, round)
		if !changed {
			round++
			break
		}
	}

	res := analyzer.Analyze(g, sc, cfg.Logger)
	return TrialOutcome{
		Label:           j.label,
		AdoptionPercent: j.percent,
		Trial:           j.trial,
		Rounds:          round,
		Result:          res,
	}, nil
}
