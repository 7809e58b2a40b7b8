package commands

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ssds/seat-allocation/pkg/core/services"
)

// ScanCmd creates the scan command
func ScanCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [roster_file]",
		Short: "Count the students in a roster and list the departments they chose",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, source, err := loadRoster(app, args)
			if err != nil {
				return err
			}

			result := services.ScanRoster(r, app.Logger)

			fmt.Printf("\nRoster: %s\n\n", source)
			fmt.Printf("Students: %d\n", result.StudentCount)
			if result.SkippedCount > 0 {
				fmt.Printf("Skipped:  %s%d%s (rows without id or name)\n", colorYellow, result.SkippedCount, colorReset)
			}

			if len(result.Departments) > 0 {
				fmt.Printf("\nDepartments chosen:\n")
				for _, d := range result.Departments {
					fmt.Printf("  %s\n", d)
				}
			}

			if len(result.Capacities) > 0 {
				fmt.Printf("\nCapacities from the Settings sheet:\n")
				for _, name := range slices.Sorted(maps.Keys(result.Capacities)) {
					fmt.Printf("  %-30s %d\n", name, result.Capacities[name])
				}
			}
			fmt.Println()

			return nil
		},
	}
}
