package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/model"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/exporter"
)

// ResultsPublisher writes a results table to a spreadsheet tab, replacing its contents
type ResultsPublisher interface {
	PublishResults(ctx context.Context, spreadsheetID, tabTitle string, header []string, rows [][]any) error
}

// PublishResult describes where a run was published
type PublishResult struct {
	SpreadsheetID string
	Tab           string
	Rows          int
}

// PublishResults writes a stored run to the configured results spreadsheet.
// The tab is named after the run's creation time so repeated publishing overwrites the same tab.
func PublishResults(
	ctx context.Context,
	store RunHistoryStore,
	publisher ResultsPublisher,
	cfg *config.Config,
	logger *zap.Logger,
	runID string,
) (*PublishResult, error) {
	if cfg.Sheets.ResultsSheetID == "" {
		return nil, fmt.Errorf("sheets.resultsSheetID is not configured")
	}

	logger.Debug("Starting publishResults", zap.String("run_id", runID))

	// Step 1: Load the run
	detail, err := GetRun(ctx, store, logger, runID)
	if err != nil {
		return nil, err
	}

	// Step 2: Convert stored assignments to sheet rows
	rows := make([][]any, len(detail.Assignments))
	for i, a := range detail.Assignments {
		rows[i] = storedRow(a).Values()
	}

	tab := ResultsTabTitle(detail.Run.CreatedAt.Format("2006-01-02 15:04"))

	// Step 3: Publish
	if err := publisher.PublishResults(ctx, cfg.Sheets.ResultsSheetID, tab, exporter.Header(), rows); err != nil {
		return nil, fmt.Errorf("failed to publish results: %w", err)
	}

	logger.Info("Published results",
		zap.String("run_id", runID),
		zap.String("tab", tab),
		zap.Int("rows", len(rows)))

	return &PublishResult{SpreadsheetID: cfg.Sheets.ResultsSheetID, Tab: tab, Rows: len(rows)}, nil
}

// ResultsTabTitle returns the sheet tab name for a run created at the given time
func ResultsTabTitle(created string) string {
	return "Results " + created
}

// storedRow renders a stored assignment the way exporter.Rows renders a fresh one
func storedRow(a db.RunAssignment) exporter.Row {
	row := exporter.Row{
		Order:    a.Rank,
		ID:       a.StudentID,
		Name:     a.Name,
		Average:  a.Average,
		Channel:  model.Channel(a.StudentChannel).Label(),
		Assigned: a.Department != model.Unassigned,
	}
	if row.Assigned {
		row.Department = a.Department
		row.AssignedChannel = model.Channel(a.Channel).Label()
	} else {
		row.Department = exporter.RejectedLabel
	}
	return row
}
