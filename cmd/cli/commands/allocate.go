package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/core/model"
	"github.com/ssds/seat-allocation/pkg/core/services"
	"github.com/ssds/seat-allocation/pkg/exporter"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	var (
		mode        string
		total       int
		quotas      []string
		capacities  []string
		departments []string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "allocate [roster_file]",
		Short: "Allocate seats for a roster file (or the configured roster sheet) and write the result workbook",
		Long: `Allocate seats for a roster and write the result workbook.

Settings not given as flags come from the config file. Examples:
  allocate roster.xlsx
  allocate roster.csv --mode MANUAL --capacity Medicine=12 --capacity Law=4
  allocate roster.xlsx --total 120 --quota general=60 --quota parallel=30 --quota martyrs=10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, source, err := loadRoster(app, args)
			if err != nil {
				return err
			}

			req := services.AllocationRequest{
				Roster:      r,
				Source:      source,
				Mode:        model.Mode(strings.ToUpper(mode)),
				Departments: departments,
			}
			if cmd.Flags().Changed("total") {
				req.TotalSeats = &total
			}
			if req.Quotas, err = parseQuotaFlags(quotas); err != nil {
				return err
			}
			var order []string
			if req.Capacities, order, err = parseCapacityFlags(capacities); err != nil {
				return err
			}
			if len(req.Departments) == 0 {
				req.Departments = order
			}

			app.Logger.Debug("allocate command", zap.String("source", source), zap.Int("students", r.Count()))

			result, err := services.RunAllocation(app.Ctx, app.Database, app.Recorder, app.Cfg, app.Logger, req)
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, result.File, 0644); err != nil {
				return fmt.Errorf("failed to write result workbook: %w", err)
			}

			printAllocation(result)
			fmt.Printf("Result workbook: %s\n", out)
			if result.RunID != "" {
				fmt.Printf("Run ID:          %s\n", result.RunID)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Capacity mode: EQUAL or MANUAL (default from config)")
	cmd.Flags().IntVar(&total, "total", 0, "Total seats split across departments in EQUAL mode")
	cmd.Flags().StringArrayVar(&quotas, "quota", nil, "Channel quota as CHANNEL=FRACTION, repeatable, in declaration order")
	cmd.Flags().StringArrayVar(&capacities, "capacity", nil, "Department seats as DEPARTMENT=SEATS, repeatable, for MANUAL mode")
	cmd.Flags().StringSliceVar(&departments, "departments", nil, "Departments in priority order")
	cmd.Flags().StringVarP(&out, "out", "o", exporter.FileName, "Result workbook path")

	return cmd
}

func printAllocation(result *services.RunResult) {
	stats := result.Result.Stats
	settings := result.Settings

	fmt.Printf("\n✓ Allocation complete (%s mode)\n\n", settings.Mode)

	fmt.Printf("Quotas: ")
	for i, q := range settings.Quotas {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s %.0f%%", q.Channel, q.Fraction*100)
	}
	fmt.Printf("\n\n")

	nameWidth := len("Department")
	for _, d := range result.Result.Departments {
		nameWidth = max(nameWidth, len(d.Name))
	}
	nameWidth += 2

	fmt.Printf("%-*s%-10s%-10s%-10s%-12s%-10s\n", nameWidth, "Department", "Seats", "Assigned", "Vacant", "Backfilled", "Min avg")
	fmt.Println(strings.Repeat("-", nameWidth+62))
	for _, d := range result.Result.Departments {
		backfilled := 0
		for _, n := range d.OverflowFilled {
			backfilled += n
		}

		minAvg := "-"
		if d.Assigned > 0 {
			minAvg = fmt.Sprintf("%.2f", d.MinAverage)
		}

		vacant := fmt.Sprintf("%-10d", d.Vacant())
		if d.Vacant() > 0 {
			vacant = colorYellow + vacant + colorReset
		}

		fmt.Printf("%-*s%-10d%-10d%s%-12d%-10s\n", nameWidth, d.Name, d.Capacity, d.Assigned, vacant, backfilled, minAvg)
	}
	fmt.Println()

	fmt.Printf("Total:      %d\n", stats.Total)
	fmt.Printf("Assigned:   %s%d%s\n", colorGreen, stats.Assigned, colorReset)
	if stats.Unassigned > 0 {
		fmt.Printf("Unassigned: %s%d%s\n", colorRed, stats.Unassigned, colorReset)
	} else {
		fmt.Printf("Unassigned: 0\n")
	}
	fmt.Printf("Skipped:    %d\n", stats.Skipped)

	if len(result.Result.Skipped) > 0 {
		fmt.Printf("\n%sSkipped records:%s\n", colorDim, colorReset)
		for _, s := range result.Result.Skipped {
			fmt.Printf("  row %d %s %s: %s\n", s.Row, s.StudentID, s.Name, s.Reason)
		}
	}
	fmt.Println()
}
