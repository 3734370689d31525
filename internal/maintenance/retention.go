// Package maintenance prunes old trial outcomes and keeps the
// aggregate summary view current for long-running campaigns that
// accumulate many trials over time.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RetentionManager prunes trial_outcomes rows older than the
// configured retention window and refreshes the derived summary view.
type RetentionManager struct {
	pool          *pgxpool.Pool
	retentionDays int
	timezone      string
	logger        *zap.Logger
}

func NewRetentionManager(pool *pgxpool.Pool, retentionDays int, timezone string, logger *zap.Logger) *RetentionManager {
	return &RetentionManager{
		pool:          pool,
		retentionDays: retentionDays,
		timezone:      timezone,
		logger:        logger,
	}
}

func (rm *RetentionManager) Run(ctx context.Context) error {
	if err := rm.DropOldOutcomes(ctx); err != nil {
		return fmt.Errorf("dropping old trial outcomes: %w", err)
	}
	if err := rm.RefreshSummary(ctx); err != nil {
		return fmt.Errorf("refreshing trial outcome summary: %w", err)
	}
	return nil
}

// DropOldOutcomes deletes every trial_outcomes row recorded before the
// retention cutoff. Unlike the ingester's daily route_events table,
// trial_outcomes is written in occasional batches (one per completed
// trial run) rather than a continuous high-volume stream, so row-level
// deletion is adequate — no partition rotation is needed here.
func (rm *RetentionManager) DropOldOutcomes(ctx context.Context) error {
	loc, err := time.LoadLocation(rm.timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %s: %w", rm.timezone, err)
	}
	cutoff := time.Now().In(loc).AddDate(0, 0, -rm.retentionDays)

	tag, err := rm.pool.Exec(ctx, `DELETE FROM trial_outcomes WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("deleting old trial_outcomes rows: %w", err)
	}
	rm.logger.Info("pruned old trial outcomes",
		zap.Int64("rows_deleted", tag.RowsAffected()),
		zap.Time("cutoff", cutoff),
	)
	return nil
}

// RefreshSummary refreshes the materialized view campaigns query for
// per-(label, adoption_percent) outcome rates.
func (rm *RetentionManager) RefreshSummary(ctx context.Context) error {
	_, err := rm.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY trial_outcome_summary")
	if err != nil {
		rm.logger.Warn("failed to refresh trial_outcome_summary (may not exist yet)", zap.Error(err))
	}
	return nil
}
