// Package config loads routesim's run configuration: a YAML file
// overlaid with environment variables, following the same
// koanf-based layering the teacher's ingester uses.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

type Config struct {
	Service    ServiceConfig    `koanf:"service"`
	Simulation SimulationConfig `koanf:"simulation"`
	Postgres   PostgresConfig   `koanf:"postgres"`
	Kafka      KafkaConfig      `koanf:"kafka"`
	Retention  RetentionConfig  `koanf:"retention"`
}

type ServiceConfig struct {
	InstanceID             string `koanf:"instance_id"`
	HTTPListen             string `koanf:"http_listen"`
	LogLevel               string `koanf:"log_level"`
	ShutdownTimeoutSeconds int    `koanf:"shutdown_timeout_seconds"`
}

// SimulationConfig parameterizes one campaign: the AS graph to load,
// which scenario labels to run, and the adoption-percent × trial-count
// grid internal/driver sweeps.
type SimulationConfig struct {
	GraphFile         string    `koanf:"graph_file"`
	Labels            []string  `koanf:"labels"`
	AdoptionPercents  []float64 `koanf:"adoption_percents"`
	TrialsPerPoint    int       `koanf:"trials_per_point"`
	PropagationRounds int       `koanf:"propagation_rounds"`
	Workers           int       `koanf:"workers"`
	SnapshotDir       string    `koanf:"snapshot_dir"`

	// VictimASN/AttackerASN/Prefix/Subprefix parameterize the preset
	// scenario each label names (see cmd/routesim's labelToConfig).
	VictimASN   uint32 `koanf:"victim_asn"`
	AttackerASN uint32 `koanf:"attacker_asn"`
	Prefix      string `koanf:"prefix"`
	Subprefix   string `koanf:"subprefix"`
	PolicyClass string `koanf:"policy_class"`
	SAVClass    string `koanf:"sav_class"`
}

// PostgresConfig is optional: when DSN is empty, no trial-outcome
// store or retention manager is wired up for the run.
type PostgresConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns"`
	MinConns int32  `koanf:"min_conns"`
}

// KafkaConfig is optional: when Enabled is false, no outcome-stream
// sink is wired up alongside (or instead of) the Postgres store.
type KafkaConfig struct {
	Enabled  bool       `koanf:"enabled"`
	Brokers  []string   `koanf:"brokers"`
	Topic    string     `koanf:"topic"`
	ClientID string     `koanf:"client_id"`
	TLS      TLSConfig  `koanf:"tls"`
	SASL     SASLConfig `koanf:"sasl"`
}

type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

type SASLConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Mechanism string `koanf:"mechanism"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
}

type RetentionConfig struct {
	Days     int    `koanf:"days"`
	Timezone string `koanf:"timezone"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Overlay environment variables: ROUTESIM_SIMULATION__LABELS → simulation.labels
	if err := k.Load(env.Provider("ROUTESIM_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ROUTESIM_")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", ".")
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	cfg := &Config{
		Service: ServiceConfig{
			InstanceID:             "routesim-1",
			HTTPListen:             ":8080",
			LogLevel:               "info",
			ShutdownTimeoutSeconds: 30,
		},
		Simulation: SimulationConfig{
			TrialsPerPoint:    1,
			PropagationRounds: 8,
			Workers:           4,
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
			MinConns: 1,
		},
		Kafka: KafkaConfig{
			ClientID: "routesim",
		},
		Retention: RetentionConfig{
			Days:     30,
			Timezone: "UTC",
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Split comma-separated env strings for slice fields.
	if len(cfg.Simulation.Labels) == 1 && strings.Contains(cfg.Simulation.Labels[0], ",") {
		cfg.Simulation.Labels = strings.Split(cfg.Simulation.Labels[0], ",")
	}
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Simulation.GraphFile == "" {
		return fmt.Errorf("config: simulation.graph_file is required")
	}
	if len(c.Simulation.Labels) == 0 {
		return fmt.Errorf("config: simulation.labels is required")
	}
	if len(c.Simulation.AdoptionPercents) == 0 {
		return fmt.Errorf("config: simulation.adoption_percents is required")
	}
	if c.Simulation.TrialsPerPoint <= 0 {
		return fmt.Errorf("config: simulation.trials_per_point must be > 0 (got %d)", c.Simulation.TrialsPerPoint)
	}
	if c.Simulation.PropagationRounds <= 0 {
		return fmt.Errorf("config: simulation.propagation_rounds must be > 0 (got %d)", c.Simulation.PropagationRounds)
	}
	if c.Simulation.Workers <= 0 {
		return fmt.Errorf("config: simulation.workers must be > 0 (got %d)", c.Simulation.Workers)
	}
	if c.Simulation.VictimASN == 0 {
		return fmt.Errorf("config: simulation.victim_asn is required")
	}
	if c.Simulation.Prefix == "" {
		return fmt.Errorf("config: simulation.prefix is required")
	}
	if c.Postgres.DSN != "" {
		if c.Postgres.MaxConns <= 0 {
			return fmt.Errorf("config: postgres.max_conns must be > 0 (got %d)", c.Postgres.MaxConns)
		}
		if c.Postgres.MinConns < 0 {
			return fmt.Errorf("config: postgres.min_conns must be >= 0 (got %d)", c.Postgres.MinConns)
		}
		if c.Retention.Days <= 0 {
			return fmt.Errorf("config: retention.days must be > 0 (got %d)", c.Retention.Days)
		}
		if _, err := time.LoadLocation(c.Retention.Timezone); err != nil {
			return fmt.Errorf("config: retention.timezone is invalid: %w", err)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers is required when kafka.enabled is true")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka.enabled is true")
		}
	}
	if c.Service.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("config: service.shutdown_timeout_seconds must be > 0 (got %d)", c.Service.ShutdownTimeoutSeconds)
	}
	return nil
}

// BuildTLSConfig creates a *tls.Config from the Kafka TLS settings. Returns nil if TLS is disabled.
func (k *KafkaConfig) BuildTLSConfig() (*tls.Config, error) {
	if !k.TLS.Enabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{}
	if k.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(k.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = pool
	}
	if k.TLS.CertFile != "" && k.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(k.TLS.CertFile, k.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// BuildSASLMechanism creates a SASL mechanism from the Kafka SASL settings. Returns nil if SASL is disabled.
func (k *KafkaConfig) BuildSASLMechanism() sasl.Mechanism {
	if !k.SASL.Enabled {
		return nil
	}
	switch strings.ToUpper(k.SASL.Mechanism) {
	case "PLAIN":
		return plain.Auth{User: k.SASL.Username, Pass: k.SASL.Password}.AsMechanism()
	default:
		return nil
	}
}
