package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// AssignStaffCmd creates the assignStaff command
func AssignStaffCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignStaff [unitRosterID]",
		Short: "Fill a unit roster with people and open a new session",
		Long:  "Pick a member of the assigned unit for every slot, reconcile the hours against the monthly norms and carry the balances into a new session. Defaults to the latest unit roster.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitRosterID := optionalArg(args)
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.Logger.Debug("assignStaff command",
				zap.String("unit_roster_id", unitRosterID),
				zap.Bool("dry_run", dryRun))

			result, err := services.AssignStaff(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, unitRosterID, dryRun)
			if err != nil {
				return fmt.Errorf("failed to assign staff: %w", err)
			}

			fmt.Printf("\n🎯 Staff Roster\n\n")
			fmt.Printf("Unit Roster: %s\n", result.UnitRoster.ID)
			if result.Roster != nil {
				fmt.Printf("Roster ID:   %s\n", result.Roster.ID)
				fmt.Printf("Session ID:  %s\n", result.Session.ID)
			} else {
				fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
			}
			fmt.Println()

			printGrid(os.Stdout, result.Assignment.Grid, result.Display)
			fmt.Println()
			printUnfilled(os.Stdout, result.Assignment.Unfilled)

			if len(result.Assignment.Relaxed) > 0 {
				fmt.Printf("ℹ️  Rest rules relaxed for %d slots:\n", len(result.Assignment.Relaxed))
				for _, slot := range result.Assignment.Relaxed {
					fmt.Printf("  • %s\n", slot)
				}
				fmt.Println()
			}

			fmt.Printf("📊 Carry-over for the next session:\n\n")
			printBalances(os.Stdout, app.Inputs.Members(), result.Reconciliation.Totals)
			fmt.Println()

			if dryRun {
				fmt.Println("💡 This was a dry run. Use without --dry-run to save the roster and balances.")
			} else {
				fmt.Println("✅ Staff roster and balances have been saved.")
			}

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Run without saving to database")

	return cmd
}
