package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssds/seat-allocation/pkg/core/services"
)

// PublishResultsCmd creates the publishResults command
func PublishResultsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishResults <run_id>",
		Short: "Write a stored run's ranked results to a new tab of the results spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			published, err := services.PublishResults(app.Ctx, app.Database, client, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Published %d rows to tab %q\n", published.Rows, published.Tab)
			fmt.Printf("https://docs.google.com/spreadsheets/d/%s\n\n", published.SpreadsheetID)

			return nil
		},
	}
}
