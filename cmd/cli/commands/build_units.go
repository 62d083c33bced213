package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// BuildUnitsCmd creates the buildUnits command
func BuildUnitsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildUnits <start> <end>",
		Short: "Assign every post on every day to a unit",
		Long:  "Split the duty slots between units in proportion to headcount and store the unit roster. Dates are YYYY-MM-DD or DD.MM.YYYY.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			end, err := parseDateArg(args[1])
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.Logger.Debug("buildUnits command",
				zap.Time("start", start),
				zap.Time("end", end),
				zap.Bool("dry_run", dryRun))

			result, err := services.BuildUnitRoster(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, start, end, dryRun)
			if err != nil {
				return fmt.Errorf("failed to build unit roster: %w", err)
			}

			fmt.Printf("\n🎯 Unit Roster\n\n")
			if result.Roster != nil {
				fmt.Printf("Roster ID:   %s\n", result.Roster.ID)
			} else {
				fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
			}
			fmt.Printf("Range:       %s - %s\n\n", args[0], args[1])

			fmt.Printf("%s%-20s  %9s  %8s  %8s  %8s%s\n", colorBold, "Unit", "Headcount", "Percent", "Target", "Actual", colorReset)
			fmt.Println("--------------------  ---------  --------  --------  --------")
			for _, alloc := range result.Outcome.Allocations {
				fmt.Printf("%s  %9d  %7.1f%%  %8.1f  %8d\n",
					padRight(alloc.Unit, 20),
					alloc.Headcount,
					alloc.Percent,
					alloc.TargetDuties,
					result.Outcome.Realized[alloc.Unit])
			}
			fmt.Println()

			printGrid(os.Stdout, result.Outcome.Grid, nil)
			fmt.Println()
			printUnfilled(os.Stdout, result.Outcome.Unfilled)

			if dryRun {
				fmt.Println("💡 This was a dry run. Use without --dry-run to save the unit roster.")
			} else {
				fmt.Println("✅ Unit roster has been saved. Run assignStaff to fill it with people.")
			}

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Run without saving to database")

	return cmd
}
