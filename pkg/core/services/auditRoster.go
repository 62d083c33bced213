package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// AuditResult lists the invalid occupants of a roster
type AuditResult struct {
	// Roster is nil when the grid was supplied by the caller
	Roster     *db.Roster
	Violations []allocator.SlotViolation

	Display func(string) string
}

// AuditRoster checks every occupant of a staff roster against leave, eligibility,
// duplicate, holiday and rest rules without changing it.
// The roster is grid when given, otherwise the stored roster rosterID (or the latest).
func AuditRoster(
	ctx context.Context,
	database ReconcileStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	rosterID string,
	grid *allocator.RosterGrid,
) (*AuditResult, error) {
	logger.Debug("Starting audit", zap.String("roster_id", rosterID))

	var roster *db.Roster
	if grid == nil {
		var err error
		roster, grid, err = loadRoster(ctx, database, logger, db.RosterKindStaff, rosterID)
		if err != nil {
			return nil, err
		}
	} else if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	session, err := openingSession(ctx, database, logger, roster, inputs)
	if err != nil {
		return nil, err
	}

	a, err := newAllocator(cfg, inputs, grid.Start(), grid.End())
	if err != nil {
		return nil, err
	}

	violations, err := a.Audit(session, grid)
	if err != nil {
		return nil, fmt.Errorf("failed to audit roster: %w", err)
	}

	logger.Info("Roster audited", zap.Int("violations", len(violations)))

	return &AuditResult{Roster: roster, Violations: violations, Display: displayName(a)}, nil
}
