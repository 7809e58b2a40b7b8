package exporter

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

const (
	// FileName is the download name for the result workbook
	FileName = "distribution_result.xlsx"

	// SheetName is the sheet holding one row per student
	SheetName = "توزيع الطلبة"

	// SummarySheet holds run stats and department usage
	SummarySheet = "Summary"

	// RejectedLabel is the department cell for students without a seat
	RejectedLabel = "غير مقبول"
)

var resultHeader = []string{"التسلسل", "ت", "اسم الطالب", "المعدل", "قناة القبول", "القسم المقبول فيه", "قناة المقعد"}

// Row is the presentation form of one assignment
type Row struct {
	Order           int      `json:"order"`
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Average         *float64 `json:"average"`
	Channel         string   `json:"channel"`
	AssignedChannel string   `json:"assigned_channel"`
	Department      string   `json:"assigned_department"`
	Assigned        bool     `json:"-"`
}

// Rows converts a result to presentation rows ranked by average descending.
// Order is the 1-based rank. Unusable averages are nil.
func Rows(result *model.AllocationResult) []Row {
	ranked := result.Ranked()
	rows := make([]Row, len(ranked))

	for i, a := range ranked {
		row := Row{
			Order:    i + 1,
			ID:       a.StudentID,
			Name:     a.Name,
			Channel:  a.StudentChannel.Label(),
			Assigned: a.IsAssigned(),
		}
		if !a.Skipped {
			avg := a.Average
			row.Average = &avg
		}
		if a.IsAssigned() {
			row.Department = a.Department
			row.AssignedChannel = a.Channel.Label()
		} else {
			row.Department = RejectedLabel
		}
		rows[i] = row
	}

	return rows
}

// Values returns the row as sheet cells in header order
func (r Row) Values() []any {
	var avg any = ""
	if r.Average != nil {
		avg = *r.Average
	}
	return []any{r.Order, r.ID, r.Name, avg, r.Channel, r.Department, r.AssignedChannel}
}

// Header returns the column titles of the result sheet
func Header() []string {
	out := make([]string, len(resultHeader))
	copy(out, resultHeader)
	return out
}

// Bytes renders the result workbook in memory
func Bytes(result *model.AllocationResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes the result workbook: a right-to-left student sheet and a summary sheet
func WriteXLSX(w io.Writer, result *model.AllocationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeResultSheet(f, Rows(result)); err != nil {
		return err
	}

	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeResultSheet(f *excelize.File, rows []Row) error {
	rtl := true
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("failed to set sheet direction: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	header := make([]any, len(resultHeader))
	widths := make([]int, len(resultHeader))
	for i, h := range resultHeader {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		values := row.Values()
		for c, v := range values {
			widths[c] = max(widths[c], utf8.RuneCountInString(fmt.Sprint(v)))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(resultHeader))
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if len(rows) > 0 {
		lastCell := fmt.Sprintf("%s%d", lastCol, len(rows)+1)
		if err := f.SetCellStyle(SheetName, "A2", lastCell, cellStyle); err != nil {
			return fmt.Errorf("failed to style cells: %w", err)
		}

		rejected, err := f.NewConditionalStyle(&excelize.Style{
			Font: &excelize.Font{Color: "9C0006"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("failed to create rejected style: %w", err)
		}

		// Department column
		deptRange := fmt.Sprintf("F2:F%d", len(rows)+1)
		err = f.SetConditionalFormat(SheetName, deptRange, []excelize.ConditionalFormatOptions{{
			Type:     "cell",
			Criteria: "==",
			Format:   rejected,
			Value:    `"` + RejectedLabel + `"`,
		}})
		if err != nil {
			return fmt.Errorf("failed to set conditional format: %w", err)
		}
	}

	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(width+2)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, result *model.AllocationResult) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	lines := [][]any{
		{"Total", result.Stats.Total},
		{"Assigned", result.Stats.Assigned},
		{"Unassigned", result.Stats.Unassigned},
		{"Skipped", result.Stats.Skipped},
		{},
		{"Department", "Capacity", "Assigned", "Vacant", "Backfilled", "Min average"},
	}

	for _, d := range result.Departments {
		backfilled := 0
		for _, n := range d.OverflowFilled {
			backfilled += n
		}
		var minAvg any = ""
		if d.Assigned > 0 {
			minAvg = d.MinAverage
		}
		lines = append(lines, []any{d.Name, d.Capacity, d.Assigned, d.Vacant(), backfilled, minAvg})
	}

	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	return nil
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
