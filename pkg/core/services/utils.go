package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// RosterReader defines the roster lookups shared by the services
type RosterReader interface {
	GetRoster(ctx context.Context, id string) (*db.Roster, []db.RosterCell, error)
	GetLatestRoster(ctx context.Context, kind string) (*db.Roster, []db.RosterCell, error)
}

// SessionReader defines the session lookups needed to seed a ledger
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*db.Session, error)
	GetCarryOver(ctx context.Context, sessionID string) ([]db.CarryOver, error)
}

// loadRoster fetches a roster of the given kind and rebuilds its grid.
// If rosterID is empty, it defaults to the latest roster of that kind.
func loadRoster(ctx context.Context, database RosterReader, logger *zap.Logger, kind, rosterID string) (*db.Roster, *allocator.RosterGrid, error) {
	var (
		roster *db.Roster
		cells  []db.RosterCell
		err    error
	)
	if rosterID == "" {
		logger.Debug("No roster ID provided, using latest roster", zap.String("kind", kind))
		roster, cells, err = database.GetLatestRoster(ctx, kind)
	} else {
		logger.Debug("Fetching roster", zap.String("id", rosterID))
		roster, cells, err = database.GetRoster(ctx, rosterID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s roster: %w", kind, err)
	}

	if roster.Kind != kind {
		return nil, nil, fmt.Errorf("roster %s is a %s roster, expected %s", roster.ID, roster.Kind, kind)
	}

	grid, err := db.CellsToGrid(roster, cells)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild roster %s: %w", roster.ID, err)
	}

	logger.Debug("Loaded roster",
		zap.String("id", roster.ID),
		zap.String("start", roster.Start),
		zap.String("end", roster.End),
		zap.Int("posts", len(roster.Posts)))

	return roster, grid, nil
}

// openingSession returns the session a stored roster was built in, seeded with the
// carry-over it started from. Rosters without a session, or sessions without a
// predecessor, start from the current hours in the staff workbook.
func openingSession(ctx context.Context, database SessionReader, logger *zap.Logger, roster *db.Roster, inputs *Inputs) (*allocator.Session, error) {
	if roster == nil || roster.SessionID == "" {
		logger.Debug("Roster has no session, seeding from staff workbook")
		return allocator.NewSession("", workbook.CarryOver(inputs.Staff)), nil
	}

	session, err := database.GetSession(ctx, roster.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if session.PreviousID == "" {
		logger.Debug("First session, seeding from staff workbook", zap.String("session_id", session.ID))
		return allocator.NewSession(session.ID, workbook.CarryOver(inputs.Staff)), nil
	}

	balances, err := database.GetCarryOver(ctx, session.PreviousID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch carry-over: %w", err)
	}

	logger.Debug("Seeding from previous session",
		zap.String("session_id", session.ID),
		zap.String("previous_id", session.PreviousID),
		zap.Int("balances", len(balances)))

	return allocator.NewSession(session.ID, db.CarryOverMap(balances)), nil
}

// carryOverRows lists the new balances in staff order
func carryOverRows(sessionID string, staff []allocator.StaffMember, totals map[string]float64) []db.CarryOver {
	rows := make([]db.CarryOver, 0, len(staff))
	for _, m := range staff {
		rows = append(rows, db.CarryOver{SessionID: sessionID, StaffID: m.ID, Hours: totals[m.ID]})
	}
	return rows
}

// logUnfilled warns about every slot the engine left empty
func logUnfilled(logger *zap.Logger, unfilled []allocator.UnfilledSlot) {
	for _, u := range unfilled {
		logger.Warn("Slot left unfilled",
			zap.String("date", u.Date.Format(allocator.DateLayout)),
			zap.String("post", u.Post),
			zap.String("reason", u.Reason))
	}
}
