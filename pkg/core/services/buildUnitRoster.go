package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// BuildUnitRosterStore defines the database operations needed to store a unit roster
type BuildUnitRosterStore interface {
	InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error
}

// UnitRosterResult represents the result of building a unit roster
type UnitRosterResult struct {
	// Roster is nil on a dry run
	Roster  *db.Roster
	Outcome *allocator.UnitRosterOutcome
}

// BuildUnitRoster decides which unit covers every post on every day in [start, end]
// and stores the grid unless dryRun is set
func BuildUnitRoster(
	ctx context.Context,
	database BuildUnitRosterStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	start, end time.Time,
	dryRun bool,
) (*UnitRosterResult, error) {
	logger.Info("Building unit roster",
		zap.String("start", start.Format(allocator.DateLayout)),
		zap.String("end", end.Format(allocator.DateLayout)),
		zap.Bool("dry_run", dryRun))

	// Step 1: Build the engine for the range
	a, err := newAllocator(cfg, inputs, start, end)
	if err != nil {
		return nil, err
	}

	// Step 2: Allocate slots to units
	outcome, err := a.BuildUnitRoster(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build unit roster: %w", err)
	}

	for _, alloc := range outcome.Allocations {
		logger.Debug("Unit allocation",
			zap.String("unit", alloc.Unit),
			zap.Int("headcount", alloc.Headcount),
			zap.Float64("target", alloc.TargetDuties),
			zap.Int("realized", outcome.Realized[alloc.Unit]))
	}
	logUnfilled(logger, outcome.Unfilled)

	result := &UnitRosterResult{Outcome: outcome}
	if dryRun {
		logger.Info("Dry run, unit roster not stored", zap.Int("unfilled", len(outcome.Unfilled)))
		return result, nil
	}

	// Step 3: Store the grid
	roster := &db.Roster{
		ID:    uuid.New().String(),
		Kind:  db.RosterKindUnit,
		Start: outcome.Grid.Start().Format(allocator.DateLayout),
		End:   outcome.Grid.End().Format(allocator.DateLayout),
		Posts: outcome.Grid.Posts,
	}
	if err := database.InsertRoster(ctx, roster, db.GridToCells(roster.ID, outcome.Grid)); err != nil {
		return nil, fmt.Errorf("failed to insert unit roster: %w", err)
	}
	result.Roster = roster

	logger.Info("Unit roster stored",
		zap.String("roster_id", roster.ID),
		zap.Int("days", len(outcome.Grid.Rows)),
		zap.Int("unfilled", len(outcome.Unfilled)))

	return result, nil
}
