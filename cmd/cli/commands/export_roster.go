package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// ExportRosterCmd creates the exportRoster command
func ExportRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportRoster [rosterID]",
		Short: "Write a staff roster to Excel workbooks",
		Long:  "Write the report workbook, one workbook per month and the staff workbook with the new carry-over. Defaults to the latest staff roster.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID := optionalArg(args)
			dir, _ := cmd.Flags().GetString("dir")

			app.Logger.Debug("exportRoster command", zap.String("roster_id", rosterID), zap.String("dir", dir))

			result, err := services.ExportRoster(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, rosterID, dir)
			if err != nil {
				return fmt.Errorf("failed to export roster: %w", err)
			}

			fmt.Printf("\n✅ Roster %s exported\n\n", result.Roster.ID)
			for _, path := range result.Files {
				fmt.Printf("  ✓ %s\n", path)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("dir", "", "Output directory (defaults to outputDir from the config)")

	return cmd
}
