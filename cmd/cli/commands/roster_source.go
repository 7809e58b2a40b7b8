package commands

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/roster"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// loadRoster reads the roster file given as the only argument,
// or the configured roster sheet tab when no argument is given.
// It returns the roster and the source name recorded with the run.
func loadRoster(app *AppContext, args []string) (*roster.Roster, string, error) {
	if len(args) == 1 {
		app.Logger.Debug("Loading roster file", zap.String("path", args[0]))
		r, err := roster.LoadFile(args[0])
		if err != nil {
			return nil, "", err
		}
		return r, filepath.Base(args[0]), nil
	}

	sheets := app.Cfg.Sheets
	if sheets.RosterSheetID == "" {
		return nil, "", fmt.Errorf("no roster file given and sheets.rosterSheetID is not configured")
	}

	client, err := app.SheetsClient()
	if err != nil {
		return nil, "", err
	}

	app.Logger.Debug("Loading roster sheet", zap.String("spreadsheet_id", sheets.RosterSheetID), zap.String("tab", sheets.RosterTab))
	r, err := client.ReadRoster(app.Ctx, sheets.RosterSheetID, sheets.RosterTab)
	if err != nil {
		return nil, "", err
	}
	return r, "sheet:" + sheets.RosterTab, nil
}
