package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/routesim/bgpsim/internal/driver"
)

const createOutcomesTable = `
CREATE TABLE IF NOT EXISTS trial_outcomes (
    id                BIGSERIAL PRIMARY KEY,
    label             TEXT NOT NULL,
    adoption_percent  DOUBLE PRECISION NOT NULL,
    trial             INTEGER NOT NULL,
    rounds            INTEGER NOT NULL,
    asn               BIGINT NOT NULL,
    control_plane     TEXT NOT NULL,
    data_plane        TEXT NOT NULL,
    recorded_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createOutcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_trial_outcomes_label_percent
    ON trial_outcomes (label, adoption_percent, trial);`

// Store persists driver.TrialOutcome records to Postgres, one row per
// AS per trial — the shape analysis queries (e.g. "attacker success
// rate by adoption percent") group over directly.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore wraps an existing pool. EnsureSchema must be called once
// before Write.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// EnsureSchema creates the trial_outcomes table and its index if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createOutcomesTable); err != nil {
		return fmt.Errorf("creating trial_outcomes table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createOutcomesIndex); err != nil {
		return fmt.Errorf("creating trial_outcomes index: %w", err)
	}
	return nil
}

// Write implements driver.Sink: it batch-inserts one row per AS
// covering both the control-plane and data-plane outcome for that
// trial.
func (s *Store) Write(ctx context.Context, outcome driver.TrialOutcome) error {
	batch := make([][]any, 0, len(outcome.Result.ControlPlane))
	for asn, cp := range outcome.Result.ControlPlane {
		dp := outcome.Result.DataPlane[asn]
		batch = append(batch, []any{
			outcome.Label, outcome.AdoptionPercent, outcome.Trial, outcome.Rounds,
			int64(asn), cp.String(), dp.String(),
		})
	}

	const insertSQL = `INSERT INTO trial_outcomes
		(label, adoption_percent, trial, rounds, asn, control_plane, data_plane)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning trial_outcomes transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range batch {
		if _, err := tx.Exec(ctx, insertSQL, row...); err != nil {
			return fmt.Errorf("inserting trial_outcomes row: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing trial_outcomes transaction: %w", err)
	}

	s.logger.Debug("wrote trial outcome",
		zap.String("label", outcome.Label),
		zap.Float64("adoption_percent", outcome.AdoptionPercent),
		zap.Int("trial", outcome.Trial),
		zap.Int("rows", len(batch)),
	)
	return nil
}
