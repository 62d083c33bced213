package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// RosterPublisher defines the sheet operations needed to publish a roster
type RosterPublisher interface {
	PublishRoster(spreadsheetID string, grid *allocator.RosterGrid, display func(string) string, logger *zap.Logger) (string, error)
}

// PublishResult represents a roster published to the roster sheet
type PublishResult struct {
	Roster *db.Roster
	Tab    string
}

// PublishRoster writes a stored roster to a tab of the configured roster sheet.
// If rosterID is empty, it defaults to the latest staff roster.
func PublishRoster(
	ctx context.Context,
	database RosterReader,
	publisher RosterPublisher,
	cfg *config.Config,
	inputs *Inputs,
	logger *zap.Logger,
	rosterID string,
) (*PublishResult, error) {
	if cfg.RosterSheetID == "" {
		return nil, fmt.Errorf("rosterSheetID is not configured")
	}

	logger.Debug("Starting publishRoster", zap.String("roster_id", rosterID))

	roster, grid, err := loadRoster(ctx, database, logger, db.RosterKindStaff, rosterID)
	if err != nil {
		return nil, err
	}

	a, err := newAllocator(cfg, inputs, grid.Start(), grid.End())
	if err != nil {
		return nil, err
	}

	tab, err := publisher.PublishRoster(cfg.RosterSheetID, grid, displayName(a), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to publish roster: %w", err)
	}

	logger.Info("Roster published", zap.String("roster_id", roster.ID), zap.String("tab", tab))

	return &PublishResult{Roster: roster, Tab: tab}, nil
}
