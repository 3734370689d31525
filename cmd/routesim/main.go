package main

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/config"
	"github.com/routesim/bgpsim/internal/db"
	"github.com/routesim/bgpsim/internal/driver"
	routesimhttp "github.com/routesim/bgpsim/internal/http"
	"github.com/routesim/bgpsim/internal/maintenance"
	"github.com/routesim/bgpsim/internal/metrics"
	"github.com/routesim/bgpsim/internal/persist"
	"github.com/routesim/bgpsim/internal/policy"
	"github.com/routesim/bgpsim/internal/sav"
	"github.com/routesim/bgpsim/internal/scenario"
	"github.com/routesim/bgpsim/internal/security"
	"github.com/routesim/bgpsim/internal/topology"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCampaign()
	case "migrate":
		runMigrate()
	case "maintenance":
		runMaintenance()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: routesim <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run           Run a simulation campaign across the configured grid")
	fmt.Println("  migrate       Create the trial_outcomes schema in Postgres")
	fmt.Println("  maintenance   Prune old trial outcomes and refresh the summary view")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>   Path to configuration YAML file")
	fmt.Println("  --log-level <lvl> Override log level (debug, info, warn, error)")
}

func parseFlags(args []string) (configPath string, logLevel string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				logLevel = args[i+1]
				i++
			}
		}
	}
	return
}

func loadConfig(args []string) (*config.Config, *zap.Logger) {
	configPath, logLevelOverride := parseFlags(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if logLevelOverride != "" {
		cfg.Service.LogLevel = logLevelOverride
	}

	logger := initLogger(cfg.Service.LogLevel)
	return cfg, logger
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// progress implements routesimhttp.ProgressReporter over an atomic
// counter driver.Run's workers bump as each job completes.
type progress struct {
	completed atomic.Int64
	total     int
}

func (p *progress) TrialsCompleted() int { return int(p.completed.Load()) }
func (p *progress) TrialsTotal() int     { return p.total }

func policyClassFor(name string) scenario.PolicyClass {
	switch name {
	case "bgp-full":
		return scenario.PolicyClass{
			Name:      "bgp-full",
			NewPolicy: func() policy.Policy { return policy.NewFull(nil) },
		}
	case "rov":
		return scenario.PolicyClass{
			Name:      "rov",
			NewPolicy: func() policy.Policy { return policy.NewSimple([]security.Extension{&security.ROV{}}) },
		}
	default:
		return scenario.PolicyClass{
			Name:      "bgp-simple",
			NewPolicy: func() policy.Policy { return policy.NewSimple(nil) },
		}
	}
}

func savClassFor(name string) func() sav.Validator {
	switch name {
	case "strict-urpf":
		return func() sav.Validator { return &sav.StrictURPF{} }
	case "feasible-urpf":
		return func() sav.Validator { return &sav.FeasibleURPF{} }
	default:
		return nil
	}
}

// labelToConfig maps a configured scenario label to the preset
// Config it names, using the shared victim/attacker/prefix
// parameters from SimulationConfig. Unrecognized labels fall back to
// the valid-prefix baseline scenario.
func labelToConfig(sim *config.SimulationConfig, label string, trial int) scenario.Config {
	victim := bgpnet.ASN(sim.VictimASN)
	attacker := bgpnet.ASN(sim.AttackerASN)

	var cfg scenario.Config
	switch label {
	case "prefix-hijack":
		cfg = scenario.PrefixHijackConfig(label, victim, attacker, sim.Prefix)
	case "subprefix-hijack":
		cfg = scenario.SubprefixHijackConfig(label, victim, attacker, sim.Prefix, sim.Subprefix)
	case "rov-hijack":
		cfg = scenario.ROVHijackConfig(label, victim, attacker, sim.Prefix)
	case "loop-attack":
		cfg = scenario.LoopAttackConfig(label, victim, attacker, sim.Prefix)
	default:
		cfg = scenario.ValidPrefixConfig(label, victim, sim.Prefix)
	}

	cls := policyClassFor(sim.PolicyClass)
	cfg.DefaultClass = cls
	cfg.AdoptingClass = cls
	if newSAV := savClassFor(sim.SAVClass); newSAV != nil {
		cfg.DefaultClass.NewSAV = newSAV
		cfg.AdoptingClass.NewSAV = newSAV
	}
	return cfg
}

func runCampaign() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	metrics.Register()

	logger.Info("starting routesim campaign",
		zap.String("instance_id", cfg.Service.InstanceID),
		zap.Strings("labels", cfg.Simulation.Labels),
		zap.Int("trials_per_point", cfg.Simulation.TrialsPerPoint),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graphFile, err := os.ReadFile(cfg.Simulation.GraphFile)
	if err != nil {
		logger.Fatal("failed to read graph file", zap.Error(err))
	}
	newGraph := func() (*topology.Graph, error) {
		return topology.LoadCAIDA(bytes.NewReader(graphFile))
	}

	var pool *pgxpool.Pool
	var outcomeStore *persist.Store
	if cfg.Postgres.DSN != "" {
		pgxPool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pgxPool.Close()
		pool = pgxPool

		outcomeStore = persist.NewStore(pgxPool, logger.Named("persist.store"))
		if err := outcomeStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure trial_outcomes schema", zap.Error(err))
		}

		rm := maintenance.NewRetentionManager(pgxPool, cfg.Retention.Days, cfg.Retention.Timezone, logger.Named("maintenance"))
		if err := rm.DropOldOutcomes(ctx); err != nil {
			logger.Warn("startup retention sweep failed", zap.Error(err))
		}
	}

	var kafkaSink *driver.KafkaSink
	if cfg.Kafka.Enabled {
		tlsCfg, err := cfg.Kafka.BuildTLSConfig()
		if err != nil {
			logger.Fatal("failed to build TLS config", zap.Error(err))
		}
		saslMech := cfg.Kafka.BuildSASLMechanism()

		kafkaSink, err = driver.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, tlsCfg, saslMech, logger.Named("driver.kafka"))
		if err != nil {
			logger.Fatal("failed to create kafka sink", zap.Error(err))
		}
		defer kafkaSink.Close()
	}

	var sink driver.Sink
	switch {
	case outcomeStore != nil && kafkaSink != nil:
		sink = multiSink{outcomeStore, kafkaSink}
	case outcomeStore != nil:
		sink = outcomeStore
	case kafkaSink != nil:
		sink = kafkaSink
	}

	prog := &progress{total: len(cfg.Simulation.Labels) * len(cfg.Simulation.AdoptionPercents) * cfg.Simulation.TrialsPerPoint}
	countingSink := &countingSink{inner: sink, progress: prog}

	httpServer := routesimhttp.NewServer(cfg.Service.HTTPListen, pool, prog, logger.Named("http"))
	if err := httpServer.Start(); err != nil {
		logger.Fatal("failed to start HTTP server", zap.Error(err))
	}

	runDone := make(chan struct{})
	var outcomes []driver.TrialOutcome
	var runErr error
	go func() {
		defer close(runDone)
		outcomes, runErr = driver.Run(ctx, driver.RunConfig{
			Labels:            cfg.Simulation.Labels,
			AdoptionPercents:  cfg.Simulation.AdoptionPercents,
			TrialsPerPoint:    cfg.Simulation.TrialsPerPoint,
			PropagationRounds: cfg.Simulation.PropagationRounds,
			Workers:           cfg.Simulation.Workers,
			NewGraph:          newGraph,
			NewScenario: func(label string, trial int) scenario.Config {
				return labelToConfig(&cfg.Simulation, label, trial)
			},
			Sink:   countingSink,
			Logger: logger.Named("driver"),
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-runDone:
		if runErr != nil {
			logger.Error("campaign finished with errors", zap.Error(runErr))
		}
		logger.Info("campaign complete", zap.Int("outcomes", len(outcomes)))
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-runDone
	}

	shutdownTimeout := time.Duration(cfg.Service.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("routesim stopped")
}

// migrationsDir returns the path to the migrations directory relative
// to the binary, matching the teacher's own layout convention.
func migrationsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

func runMigrate() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if cfg.Postgres.DSN == "" {
		logger.Fatal("migrate requires postgres.dsn to be configured")
	}

	logger.Info("running migrations",
		zap.String("dsn", redactDSN(cfg.Postgres.DSN)),
	)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrationsDir(), logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migrations complete")
}

func runMaintenance() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if cfg.Postgres.DSN == "" {
		logger.Fatal("maintenance requires postgres.dsn to be configured")
	}

	logger.Info("running trial_outcomes maintenance",
		zap.Int("retention_days", cfg.Retention.Days),
		zap.String("timezone", cfg.Retention.Timezone),
	)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	rm := maintenance.NewRetentionManager(pool, cfg.Retention.Days, cfg.Retention.Timezone, logger)
	if err := rm.Run(ctx); err != nil {
		logger.Fatal("maintenance failed", zap.Error(err))
	}

	logger.Info("maintenance complete")
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		re := regexp.MustCompile(`password\s*=\s*\S+`)
		return re.ReplaceAllString(dsn, "password=***")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// multiSink fans a trial outcome out to every configured sink,
// returning the first error encountered.
type multiSink []driver.Sink

func (m multiSink) Write(ctx context.Context, outcome driver.TrialOutcome) error {
	for _, s := range m {
		if err := s.Write(ctx, outcome); err != nil {
			return err
		}
	}
	return nil
}

// countingSink wraps the configured Sink (if any) to advance the
// progress counter httpServer's /readyz reports, independent of
// whether a durable sink is configured at all.
type countingSink struct {
	inner    driver.Sink
	progress *progress
}

func (c *countingSink) Write(ctx context.Context, outcome driver.TrialOutcome) error {
	defer c.progress.completed.Add(1)
	if c.inner == nil {
		return nil
	}
	return c.inner.Write(ctx, outcome)
}
