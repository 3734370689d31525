package driver

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"go.uber.org/zap"

	"github.com/routesim/bgpsim/internal/analyzer"
	"github.com/routesim/bgpsim/internal/bgpnet"
)

// KafkaSink publishes every completed TrialOutcome as a JSON record to
// one configured topic, whatever the scenario label — an optional
// companion to an in-process Sink such as internal/persist's Postgres
// store, for downstream consumers that want trial results as a
// stream rather than a table.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

// NewKafkaSink dials a franz-go producer client against brokers.
func NewKafkaSink(brokers []string, topic, clientID string, tlsCfg *tls.Config, saslMech sasl.Mechanism, logger *zap.Logger) (*KafkaSink, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.DefaultProduceTopic(topic),
	}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if saslMech != nil {
		opts = append(opts, kgo.SASL(saslMech))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

type outcomeRecord struct {
	Label           string            `json:"label"`
	AdoptionPercent float64           `json:"adoption_percent"`
	Trial           int               `json:"trial"`
	Rounds          int               `json:"rounds"`
	ControlPlane    map[string]string `json:"control_plane"`
	DataPlane       map[string]string `json:"data_plane"`
}

// Write serializes outcome and produces it synchronously, blocking
// until the broker acknowledges it or ctx is cancelled.
func (s *KafkaSink) Write(ctx context.Context, outcome TrialOutcome) error {
	rec := outcomeRecord{
		Label:           outcome.Label,
		AdoptionPercent: outcome.AdoptionPercent,
		Trial:           outcome.Trial,
		Rounds:          outcome.Rounds,
		ControlPlane:    stringifyOutcomes(outcome.Result.ControlPlane),
		DataPlane:       stringifyOutcomes(outcome.Result.DataPlane),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling trial outcome: %w", err)
	}

	resultCh := make(chan error, 1)
	s.client.Produce(ctx, &kgo.Record{Topic: s.topic, Value: payload}, func(_ *kgo.Record, err error) {
		resultCh <- err
	})

	select {
	case err := <-resultCh:
		if err != nil {
			s.logger.Error("kafka produce failed", zap.String("label", outcome.Label), zap.Error(err))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying producer client.
func (s *KafkaSink) Close() {
	s.client.Close()
}

func stringifyOutcomes(m map[bgpnet.ASN]analyzer.Outcome) map[string]string {
	out := make(map[string]string, len(m))
	for asn, outcome := range m {
		out[asn.String()] = outcome.String()
	}
	return out
}
