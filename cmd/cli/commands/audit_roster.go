package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/workbook"
)

// AuditRosterCmd creates the auditRoster command
func AuditRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auditRoster [rosterID]",
		Short: "List invalid occupants of a staff roster without changing it",
		Long:  "Check every occupant against leave, eligibility, duplicate, holiday and rest rules. Reads a roster workbook with --file, otherwise the stored roster (defaults to the latest).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID := optionalArg(args)
			file, _ := cmd.Flags().GetString("file")

			app.Logger.Debug("auditRoster command", zap.String("roster_id", rosterID), zap.String("file", file))

			var grid *allocator.RosterGrid
			if file != "" {
				var err error
				grid, err = workbook.ReadRosterFile(file)
				if err != nil {
					return fmt.Errorf("failed to read roster workbook: %w", err)
				}
			}

			result, err := services.AuditRoster(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, rosterID, grid)
			if err != nil {
				return fmt.Errorf("failed to audit roster: %w", err)
			}

			if len(result.Violations) == 0 {
				fmt.Println("\n✅ No violations found.")
				return nil
			}

			fmt.Printf("\n⚠️  Violations (%d):\n", len(result.Violations))
			for _, v := range result.Violations {
				detail := string(v.Reason)
				if v.Detail != "" {
					detail += ": " + v.Detail
				}
				fmt.Printf("  • %s %s: %s (%s)\n",
					v.Date.Format(workbook.DateLayout),
					v.Post,
					result.Display(v.Occupant),
					detail)
			}
			fmt.Println()
			fmt.Println("💡 Run replaceAbsences to substitute these occupants.")

			return nil
		},
	}

	cmd.Flags().String("file", "", "Read the roster from a workbook instead of the database")

	return cmd
}
