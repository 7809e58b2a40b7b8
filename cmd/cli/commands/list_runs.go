package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssds/seat-allocation/pkg/core/services"
)

const defaultRunListLimit = 10

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns [limit]",
		Short: "List stored allocation runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := defaultRunListLimit
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("limit must be a non-negative whole number, got %q", args[0])
				}
				limit = n
			}

			runs, err := services.ListRuns(app.Ctx, app.Database, app.Logger, limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("\nNo runs stored yet")
				fmt.Println()
				return nil
			}

			fmt.Printf("\n%-38s%-18s%-8s%-8s%-10s%-12s%-9s%s\n", "Run ID", "Created", "Mode", "Total", "Assigned", "Unassigned", "Skipped", "Source")
			for _, run := range runs {
				fmt.Printf("%-38s%-18s%-8s%-8d%-10d%-12d%-9d%s\n",
					run.ID,
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					run.Mode,
					run.Total,
					run.Assigned,
					run.Unassigned,
					run.Skipped,
					run.Source,
				)
			}
			fmt.Println()

			return nil
		},
	}
}
