package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// ReplaceAbsencesStore defines the database operations needed for a replacement pass
type ReplaceAbsencesStore interface {
	RosterReader
	SessionReader
	InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error
	InsertReplacements(ctx context.Context, replacements []db.Replacement) error
}

// ReplaceAbsencesResult represents the result of a replacement pass
type ReplaceAbsencesResult struct {
	// Source is nil when the grid was supplied by the caller
	Source *db.Roster

	// Roster is the corrected roster, nil on a dry run
	Roster  *db.Roster
	Outcome *allocator.ReplacementOutcome

	Display func(string) string
}

// ReplaceAbsences substitutes every absent, ineligible or over-worked occupant of a staff
// roster and stores the corrected grid with its history unless dryRun is set.
// The roster is grid when given, otherwise the stored roster rosterID (or the latest).
func ReplaceAbsences(
	ctx context.Context,
	database ReplaceAbsencesStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	rosterID string,
	grid *allocator.RosterGrid,
	dryRun bool,
) (*ReplaceAbsencesResult, error) {
	logger.Info("Replacing absences", zap.String("roster_id", rosterID), zap.Bool("dry_run", dryRun))

	// Step 1: Resolve the roster to correct
	var source *db.Roster
	if grid == nil {
		var err error
		source, grid, err = loadRoster(ctx, database, logger, db.RosterKindStaff, rosterID)
		if err != nil {
			return nil, err
		}
	} else if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	// Step 2: Seed the ledger the roster was built with
	session, err := openingSession(ctx, database, logger, source, inputs)
	if err != nil {
		return nil, err
	}

	// Step 3: Walk the roster
	a, err := newAllocator(cfg, inputs, grid.Start(), grid.End())
	if err != nil {
		return nil, err
	}

	outcome, err := a.ReplaceAbsences(session, grid)
	if err != nil {
		return nil, fmt.Errorf("failed to replace absences: %w", err)
	}

	for _, h := range outcome.History {
		logger.Debug("Replaced occupant",
			zap.String("date", h.Date.Format(allocator.DateLayout)),
			zap.String("post", h.Post),
			zap.String("original", h.Original),
			zap.String("substitute", h.Substitute),
			zap.String("reason", string(h.Reason)),
			zap.String("fallback", string(h.Fallback)))
	}

	result := &ReplaceAbsencesResult{Source: source, Outcome: outcome, Display: displayName(a)}
	if dryRun {
		logger.Info("Dry run, corrected roster not stored", zap.Int("replacements", len(outcome.History)))
		return result, nil
	}

	// Step 4: Store the corrected grid and its history
	roster := &db.Roster{
		ID:    uuid.New().String(),
		Kind:  db.RosterKindStaff,
		Start: outcome.Grid.Start().Format(allocator.DateLayout),
		End:   outcome.Grid.End().Format(allocator.DateLayout),
		Posts: outcome.Grid.Posts,
	}
	if source != nil {
		roster.SessionID = source.SessionID
	}

	if err := database.InsertRoster(ctx, roster, db.GridToCells(roster.ID, outcome.Grid)); err != nil {
		return nil, fmt.Errorf("failed to insert corrected roster: %w", err)
	}
	if err := database.InsertReplacements(ctx, db.ReplacementsFromHistory(roster.ID, outcome.History, uuid.NewString)); err != nil {
		return nil, fmt.Errorf("failed to insert replacements: %w", err)
	}
	result.Roster = roster

	logger.Info("Corrected roster stored",
		zap.String("roster_id", roster.ID),
		zap.Int("replacements", len(outcome.History)))

	return result, nil
}
