package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// CarryOverFileName is the staff workbook written for the next session
const CarryOverFileName = "staff_carry_over.xlsx"

// ExportRosterStore defines the database operations needed to export a roster
type ExportRosterStore interface {
	RosterReader
	SessionReader
	GetReplacements(ctx context.Context, rosterID string) ([]db.Replacement, error)
}

// ExportResult lists the files written by an export
type ExportResult struct {
	Roster *db.Roster
	Files  []string
}

// ExportRoster writes a stored staff roster to outDir as the report workbook, one
// workbook per calendar month and the staff workbook with the new carry-over.
// An empty outDir falls back to the configured output directory.
func ExportRoster(
	ctx context.Context,
	database ExportRosterStore,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	rosterID string,
	outDir string,
) (*ExportResult, error) {
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if outDir == "" {
		outDir = "."
	}

	logger.Info("Exporting roster", zap.String("roster_id", rosterID), zap.String("dir", outDir))

	// Step 1: Fetch the roster and its replacement history
	roster, grid, err := loadRoster(ctx, database, logger, db.RosterKindStaff, rosterID)
	if err != nil {
		return nil, err
	}

	replacements, err := database.GetReplacements(ctx, roster.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replacements: %w", err)
	}
	history, err := db.HistoryFromReplacements(replacements)
	if err != nil {
		return nil, err
	}

	// Step 2: Reconcile for the next session's balances
	session, err := openingSession(ctx, database, logger, roster, inputs)
	if err != nil {
		return nil, err
	}

	a, err := newAllocator(cfg, inputs, grid.Start(), grid.End())
	if err != nil {
		return nil, err
	}

	reconciliation, err := a.Reconcile(session, grid, cfg.ToMonthlyNorms())
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile roster: %w", err)
	}

	// Step 3: Write the workbooks
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	display := displayName(a)
	result := &ExportResult{Roster: roster}

	reportPath := filepath.Join(outDir, fmt.Sprintf("roster_%s-%s.xlsx",
		grid.Start().Format(workbook.DateLayout), grid.End().Format(workbook.DateLayout)))
	err = workbook.WriteOutputFile(reportPath, workbook.Output{
		Grid:    grid,
		Summary: a.Summarize(grid),
		History: history,
		Display: display,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	result.Files = append(result.Files, reportPath)
	logger.Debug("Wrote report", zap.String("path", reportPath))

	monthly, err := workbook.WriteMonthly(outDir, grid, display)
	if err != nil {
		return nil, fmt.Errorf("failed to write monthly rosters: %w", err)
	}
	result.Files = append(result.Files, monthly...)

	carryPath := filepath.Join(outDir, CarryOverFileName)
	if err := workbook.WriteStaffCarryOverFile(carryPath, inputs.Staff, reconciliation.Totals); err != nil {
		return nil, fmt.Errorf("failed to write staff carry-over: %w", err)
	}
	result.Files = append(result.Files, carryPath)

	logger.Info("Roster exported",
		zap.String("roster_id", roster.ID),
		zap.Int("files", len(result.Files)))

	return result, nil
}
