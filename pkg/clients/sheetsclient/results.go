package sheetsclient

import (
	"context"
	"fmt"
)

// PublishResults writes a results table to a tab, creating the tab if it does not exist.
// An existing tab is cleared first so no rows from an earlier, longer run remain.
func (c *Client) PublishResults(ctx context.Context, spreadsheetID, tabTitle string, header []string, rows [][]any) error {
	exists, err := c.SheetExists(ctx, spreadsheetID, tabTitle)
	if err != nil {
		return err
	}

	if exists {
		if err := c.ClearValues(ctx, spreadsheetID, quoteTab(tabTitle)); err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", tabTitle, err)
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, tabTitle); err != nil {
			return fmt.Errorf("failed to create tab %q: %w", tabTitle, err)
		}
	}

	if err := c.UpdateValues(ctx, spreadsheetID, quoteTab(tabTitle)+"!A1", resultValues(header, rows)); err != nil {
		return fmt.Errorf("failed to write results to tab %q: %w", tabTitle, err)
	}

	return nil
}

// resultValues puts the header above the data rows
func resultValues(header []string, rows [][]any) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	values = append(values, headerRow)

	for _, row := range rows {
		values = append(values, row)
	}
	return values
}

// quoteTab quotes a tab title for A1 notation; embedded quotes are doubled
func quoteTab(title string) string {
	quoted := []rune{'\''}
	for _, r := range title {
		if r == '\'' {
			quoted = append(quoted, '\'')
		}
		quoted = append(quoted, r)
	}
	return string(append(quoted, '\''))
}
