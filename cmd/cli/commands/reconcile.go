package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
	"github.com/jakechorley/duty-roster/pkg/core/services"
)

// ReconcileCmd creates the reconcile command
func ReconcileCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [rosterID]",
		Short: "Compare worked hours with the monthly norms",
		Long:  "Show each member's worked hours against the prorated monthly norm for a staff roster. Defaults to the latest staff roster. Nothing is saved.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID := optionalArg(args)
			tolerance, _ := cmd.Flags().GetFloat64("tolerance")

			app.Logger.Debug("reconcile command", zap.String("roster_id", rosterID))

			result, err := services.Reconcile(app.Ctx, app.Database, app.Cfg, app.Inputs, app.Logger, rosterID)
			if err != nil {
				return fmt.Errorf("failed to reconcile: %w", err)
			}

			members := make(map[string]allocator.StaffMember, len(result.Staff))
			for _, m := range result.Staff {
				members[m.ID] = m
			}

			fmt.Printf("\n📊 Monthly Norms for roster %s (%s - %s)\n\n", result.Roster.ID, result.Roster.Start, result.Roster.End)
			fmt.Printf("%s%-30s  %-10s  %6s  %6s  %6s  %8s  %6s%s\n",
				colorBold, "Member", "Month", "Norm", "Days", "Leave", "Expected", "Worked", colorReset)
			fmt.Println("------------------------------  ----------  ------  ------  ------  --------  ------  ------")

			for _, rec := range result.Outcome.Records {
				name := members[rec.StaffID].DisplayName()
				if !rec.Applicable {
					fmt.Printf("%s  %-10s  %6s\n", padRight(name, 30), rec.Month.String(), "n/a")
					continue
				}
				color := deltaColor(rec.Delta, tolerance, colorGreen, colorYellow, colorRed)
				fmt.Printf("%s  %-10s  %6.0f  %6d  %6d  %8.0f  %6.0f  %s%+6.0f%s\n",
					padRight(name, 30),
					rec.Month.String(),
					rec.Norm,
					rec.ActiveDays,
					rec.LeaveDays,
					rec.Expected,
					rec.Worked,
					color, rec.Delta, colorReset)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Float64("tolerance", 8, "Hours either side of the norm shown as on target")

	return cmd
}
