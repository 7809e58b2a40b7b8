package sheetsclient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ssds/seat-allocation/pkg/roster"
)

// ReadRoster reads a roster tab laid out like a roster file: a header row, then one row per student
func (c *Client) ReadRoster(ctx context.Context, spreadsheetID, tab string) (*roster.Roster, error) {
	values, err := c.GetValues(ctx, spreadsheetID, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("roster tab %q is empty", tab)
	}

	r, err := roster.FromTable(valuesToTable(values))
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster tab %q: %w", tab, err)
	}

	return r, nil
}

// valuesToTable converts API cell values to strings.
// Numbers keep their shortest decimal form so averages parse like file cells.
func valuesToTable(values [][]interface{}) [][]string {
	table := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		table[i] = cells
	}
	return table
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
