package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// ReplaceAbsencesCmd creates the replaceAbsences command
func ReplaceAbsencesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replaceAbsences [rosterID]",
		Short: "Replace absent or ineligible people in a staff roster",
		Long:  "Walk a staff roster in date order and substitute every occupant who is on leave, ineligible, serving twice or not rested. Reads a roster workbook with --file, otherwise the stored roster (defaults to the latest).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID := optionalArg(args)
			file, _ := cmd.Flags().GetString("file")
			output, _ := cmd.Flags().GetString("output")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.Logger.Debug("replaceAbsences command",
				zap.String("roster_id", rosterID),
				zap.String("file", file),
				zap.Bool("dry_run", dryRun))

			var grid *allocator.RosterGrid
			if file != "" {
				var err error
				grid, err = workbook.ReadRosterFile(file)
				if err != nil {
					return fmt.Errorf("failed to read roster workbook: %w", err)
				}
			}

			result, err := services.ReplaceAbsences(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, rosterID, grid, dryRun)
			if err != nil {
				return fmt.Errorf("failed to replace absences: %w", err)
			}

			fmt.Printf("\n🔄 Replacements\n\n")
			if result.Roster != nil {
				fmt.Printf("Roster ID:   %s\n", result.Roster.ID)
			} else {
				fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
			}
			fmt.Printf("Replaced:    %d\n\n", len(result.Outcome.History))

			printGrid(os.Stdout, result.Outcome.Grid, result.Display)
			fmt.Println()

			if len(result.Outcome.History) > 0 {
				fmt.Printf("📝 History:\n")
				printHistory(os.Stdout, result.Outcome.History, result.Display)
				fmt.Println()
			}

			if output != "" {
				err := workbook.WriteOutputFile(output, workbook.Output{
					Grid:    result.Outcome.Grid,
					Summary: result.Outcome.Summary,
					History: result.Outcome.History,
					Display: result.Display,
				})
				if err != nil {
					return fmt.Errorf("failed to write output workbook: %w", err)
				}
				fmt.Printf("✓ Wrote %s\n", output)
			}

			return nil
		},
	}

	cmd.Flags().String("file", "", "Read the roster from a workbook instead of the database")
	cmd.Flags().String("output", "", "Write the corrected roster, summary and history to this workbook")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database")

	return cmd
}
