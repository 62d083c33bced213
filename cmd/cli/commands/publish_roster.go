package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// PublishRosterCmd creates the publishRoster command
func PublishRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishRoster [rosterID]",
		Short: "Publish a staff roster to Google Sheets",
		Long:  "Publish a staff roster to a tab of the roster sheet. If no rosterID is provided, publishes the latest staff roster.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID := optionalArg(args)

			app.Logger.Debug("publishRoster command", zap.String("roster_id", rosterID))

			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			result, err := services.PublishRoster(app.Ctx, app.Database, client, app.Cfg, app.Inputs, app.Logger, rosterID)
			if err != nil {
				return fmt.Errorf("failed to publish roster: %w", err)
			}

			fmt.Printf("\n✅ Roster Published Successfully\n\n")
			fmt.Printf("Roster ID:  %s\n", result.Roster.ID)
			fmt.Printf("Range:      %s - %s\n", result.Roster.Start, result.Roster.End)
			fmt.Printf("Tab:        %s\n", result.Tab)
			fmt.Printf("Sheet ID:   %s\n\n", app.Cfg.RosterSheetID)

			return nil
		},
	}

	return cmd
}
