package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssds/seat-allocation/pkg/core/model"
	"github.com/ssds/seat-allocation/pkg/core/services"
)

// ViewRunCmd creates the viewRun command
func ViewRunCmd(app *AppContext) *cobra.Command {
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "viewRun <run_id>",
		Short: "Show a stored run's department summary and ranked assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := services.GetRun(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}
			run := detail.Run

			fmt.Printf("\nRun %s\n", run.ID)
			fmt.Printf("Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Source:  %s\n", run.Source)
			fmt.Printf("Mode:    %s", run.Mode)
			if run.Mode == string(model.ModeEqual) {
				fmt.Printf(" (%d seats)", run.TotalSeats)
			}
			fmt.Println()

			quotas := make([]string, len(run.Quotas))
			for i, q := range run.Quotas {
				quotas[i] = fmt.Sprintf("%s %.0f%%", q.Channel, q.Fraction*100)
			}
			fmt.Printf("Quotas:  %s\n\n", strings.Join(quotas, ", "))

			for _, d := range run.Departments {
				minAvg := "-"
				if d.MinAverage != nil {
					minAvg = fmt.Sprintf("%.2f", *d.MinAverage)
				}
				fmt.Printf("  %-30s %3d/%-3d seats  backfilled %-3d min avg %s\n", d.Name, d.Assigned, d.Capacity, d.Backfilled, minAvg)
			}
			fmt.Printf("\nAssigned %d of %d (%d unassigned, %d skipped)\n", run.Assigned, run.Total, run.Unassigned, run.Skipped)

			if summaryOnly {
				fmt.Println()
				return nil
			}

			fmt.Printf("\n%-6s%-14s%-30s%-9s%-10s%-30s%s\n", "Rank", "ID", "Name", "Average", "Channel", "Department", "Seat")
			for _, a := range detail.Assignments {
				avg := "-"
				if a.Average != nil {
					avg = fmt.Sprintf("%.2f", *a.Average)
				}

				department := a.Department
				if a.Skipped || a.Department == model.Unassigned {
					department = colorRed + fmt.Sprintf("%-30s", department) + colorReset
				} else {
					department = fmt.Sprintf("%-30s", department)
				}

				fmt.Printf("%-6d%-14s%-30s%-9s%-10s%s%s\n", a.Rank, a.StudentID, a.Name, avg, a.StudentChannel, department, a.Channel)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Only show the department summary")

	return cmd
}
