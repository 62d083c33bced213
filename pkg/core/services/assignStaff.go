package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// AssignStaffStore defines the database operations needed to assign people to a unit roster
type AssignStaffStore interface {
	RosterReader
	GetLatestSession(ctx context.Context) (*db.Session, error)
	GetCarryOver(ctx context.Context, sessionID string) ([]db.CarryOver, error)
	InsertSession(ctx context.Context, session *db.Session) error
	InsertCarryOver(ctx context.Context, balances []db.CarryOver) error
	InsertRoster(ctx context.Context, roster *db.Roster, cells []db.RosterCell) error
	InsertMonthlyNorms(ctx context.Context, norms []db.MonthlyNorm) error
}

// AssignStaffResult represents the result of a person assignment run
type AssignStaffResult struct {
	// Session and Roster are nil on a dry run
	Session *db.Session
	Roster  *db.Roster

	UnitRoster     *db.Roster
	Assignment     *allocator.AssignmentOutcome
	Reconciliation *allocator.ReconciliationOutcome
	Summary        []allocator.HoursSummary

	// Display renders staff IDs as "rank name"
	Display func(string) string
}

// AssignStaff fills a stored unit roster with people, reconciles the result against
// the monthly norms and opens a new session carrying the balances forward.
// If unitRosterID is empty, it defaults to the latest unit roster.
func AssignStaff(
	ctx context.Context,
	database AssignStaffStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	unitRosterID string,
	dryRun bool,
) (*AssignStaffResult, error) {
	logger.Info("Assigning staff", zap.String("unit_roster_id", unitRosterID), zap.Bool("dry_run", dryRun))

	// Step 1: Fetch the unit roster
	unitRoster, unitGrid, err := loadRoster(ctx, database, logger, db.RosterKindUnit, unitRosterID)
	if err != nil {
		return nil, err
	}

	// Step 2: Seed the ledger from the latest session, or the staff workbook on the first run
	previous, err := database.GetLatestSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest session: %w", err)
	}

	carry := workbook.CarryOver(inputs.Staff)
	previousID := ""
	if previous != nil {
		previousID = previous.ID
		balances, err := database.GetCarryOver(ctx, previous.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch carry-over: %w", err)
		}
		carry = db.CarryOverMap(balances)
		logger.Info("Carrying balances from previous session",
			zap.String("previous_id", previous.ID),
			zap.Int("balances", len(balances)))
	} else {
		logger.Info("No previous session found, seeding from staff workbook")
	}

	session := allocator.NewSession(uuid.New().String(), carry)

	// Step 3: Assign people
	a, err := newAllocator(cfg, inputs, unitGrid.Start(), unitGrid.End())
	if err != nil {
		return nil, err
	}

	assignment, err := a.AssignStaff(session, unitGrid)
	if err != nil {
		return nil, fmt.Errorf("failed to assign staff: %w", err)
	}
	logUnfilled(logger, assignment.Unfilled)
	for _, slot := range assignment.Relaxed {
		logger.Debug("Rest rules relaxed", zap.Stringer("slot", slot))
	}

	// Step 4: Reconcile against the monthly norms
	reconciliation, err := a.Reconcile(session, assignment.Grid, cfg.ToMonthlyNorms())
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile roster: %w", err)
	}

	result := &AssignStaffResult{
		UnitRoster:     unitRoster,
		Assignment:     assignment,
		Reconciliation: reconciliation,
		Summary:        a.Summarize(assignment.Grid),
		Display:        displayName(a),
	}

	if dryRun {
		logger.Info("Dry run, staff roster not stored",
			zap.Int("unfilled", len(assignment.Unfilled)),
			zap.Int("relaxed", len(assignment.Relaxed)))
		return result, nil
	}

	// Step 5: Store the session, roster, balances and monthly records
	dbSession := &db.Session{
		ID:         session.ID,
		PreviousID: previousID,
		RangeStart: unitRoster.Start,
		RangeEnd:   unitRoster.End,
	}
	if err := database.InsertSession(ctx, dbSession); err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	roster := &db.Roster{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Kind:      db.RosterKindStaff,
		Start:     unitRoster.Start,
		End:       unitRoster.End,
		Posts:     assignment.Grid.Posts,
	}
	if err := database.InsertRoster(ctx, roster, db.GridToCells(roster.ID, assignment.Grid)); err != nil {
		return nil, fmt.Errorf("failed to insert staff roster: %w", err)
	}

	if err := database.InsertCarryOver(ctx, carryOverRows(session.ID, a.Staff(), reconciliation.Totals)); err != nil {
		return nil, fmt.Errorf("failed to insert carry-over: %w", err)
	}

	if err := database.InsertMonthlyNorms(ctx, db.MonthlyNormsFromRecords(session.ID, reconciliation.Records)); err != nil {
		return nil, fmt.Errorf("failed to insert monthly norms: %w", err)
	}

	result.Session = dbSession
	result.Roster = roster

	logger.Info("Staff roster stored",
		zap.String("session_id", session.ID),
		zap.String("roster_id", roster.ID),
		zap.Int("unfilled", len(assignment.Unfilled)),
		zap.Int("relaxed", len(assignment.Relaxed)))

	return result, nil
}
