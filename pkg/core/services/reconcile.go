package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// ReconcileStore defines the database operations needed to reconcile a stored roster
type ReconcileStore interface {
	RosterReader
	SessionReader
}

// ReconcileResult represents worked hours against the monthly norms for a roster
type ReconcileResult struct {
	Roster  *db.Roster
	Outcome *allocator.ReconciliationOutcome
	Summary []allocator.HoursSummary
	Staff   []allocator.StaffMember
}

// Reconcile recomputes the monthly norm records of a stored staff roster without
// storing anything. If rosterID is empty, it defaults to the latest staff roster.
func Reconcile(
	ctx context.Context,
	database ReconcileStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	rosterID string,
) (*ReconcileResult, error) {
	logger.Debug("Starting reconcile", zap.String("roster_id", rosterID))

	roster, grid, err := loadRoster(ctx, database, logger, db.RosterKindStaff, rosterID)
	if err != nil {
		return nil, err
	}

	session, err := openingSession(ctx, database, logger, roster, inputs)
	if err != nil {
		return nil, err
	}

	a, err := newAllocator(cfg, inputs, grid.Start(), grid.End())
	if err != nil {
		return nil, err
	}

	outcome, err := a.Reconcile(session, grid, cfg.ToMonthlyNorms())
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile roster: %w", err)
	}

	logger.Info("Roster reconciled",
		zap.String("roster_id", roster.ID),
		zap.Int("records", len(outcome.Records)))

	return &ReconcileResult{
		Roster:  roster,
		Outcome: outcome,
		Summary: a.Summarize(grid),
		Staff:   a.Staff(),
	}, nil
}
