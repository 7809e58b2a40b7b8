package roster

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/ssds/seat-allocation/pkg/core/model"
)

// Format identifies a roster file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SettingsSheet is the optional workbook sheet holding manual department capacities
const SettingsSheet = "Settings"

// Canonical column keys
const (
	colID      = "id"
	colName    = "name"
	colAverage = "average"
	colChannel = "channel"
	colChoice1 = "choice_1"
	colChoice2 = "choice_2"
	colChoice3 = "choice_3"
)

var choiceColumns = []string{colChoice1, colChoice2, colChoice3}

// headerAliases maps every accepted header (lowercased, trimmed) to its canonical key
var headerAliases = map[string]string{
	"ت":          colID,
	"id":         colID,
	"student_id": colID,

	"اسم الطالب":   colName,
	"name":         colName,
	"student_name": colName,

	"المعدل":  colAverage,
	"average": colAverage,
	"avg":     colAverage,

	"قناة القبول": colChannel,
	"channel":     colChannel,

	"الاختيار الأول":  colChoice1,
	"choice_1":        colChoice1,
	"الاختيار الثاني": colChoice2,
	"choice_2":        colChoice2,
	"الاختيار الثالث": colChoice3,
	"choice_3":        colChoice3,
}

// Roster is a parsed applicant list
type Roster struct {
	// Students are the usable records in file order
	Students []model.StudentRecord

	// Skipped lists rows that could not become a record (no id or name)
	Skipped []model.SkippedRecord

	// Capacities holds manual capacities from a Settings sheet, nil when there is none
	Capacities map[string]int
}

// Count returns the number of student records
func (r *Roster) Count() int {
	return len(r.Students)
}

// Departments returns the distinct department names students chose, sorted
func (r *Roster) Departments() []string {
	var names []string
	for _, s := range r.Students {
		for _, c := range s.Choices {
			if !slices.Contains(names, c) {
				names = append(names, c)
			}
		}
	}
	slices.Sort(names)
	return names
}

// FormatFromName picks the format from a file name's extension
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported roster file %q: expected .xlsx or .csv", name)
	}
}

// LoadFile reads a roster from disk, choosing the format from the extension
func LoadFile(path string) (*Roster, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer file.Close()

	return Load(file, format)
}

// Load reads a roster in the given format
func Load(r io.Reader, format Format) (*Roster, error) {
	switch format {
	case FormatXLSX:
		return loadXLSX(r)
	case FormatCSV:
		return loadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported roster format %q", format)
	}
}

func loadXLSX(r io.Reader) (*Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	// First sheet that is not the settings sheet holds the students
	var studentSheet string
	for _, name := range f.GetSheetList() {
		if name != SettingsSheet {
			studentSheet = name
			break
		}
	}
	if studentSheet == "" {
		return nil, fmt.Errorf("workbook has no student sheet")
	}

	table, err := f.GetRows(studentSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", studentSheet, err)
	}

	roster, err := FromTable(table)
	if err != nil {
		return nil, err
	}

	if idx, _ := f.GetSheetIndex(SettingsSheet); idx >= 0 {
		settings, err := f.GetRows(SettingsSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings sheet: %w", err)
		}
		roster.Capacities, err = parseSettings(settings)
		if err != nil {
			return nil, err
		}
	}

	return roster, nil
}

func loadCSV(r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	// Excel writes a byte order mark in front of UTF-8 csv exports
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	records, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	rows := make([]map[string]string, len(records))
	for i, rec := range records {
		rows[i] = canonicalRow(rec)
	}

	// Every row carries every header key, so the first one shows the columns
	hasID := false
	if len(rows) > 0 {
		if err := requireColumns(rows[0]); err != nil {
			return nil, err
		}
		_, hasID = rows[0][colID]
	}
	return fromRows(rows, hasID), nil
}

// FromTable builds a roster from a header row followed by data rows.
// Rows may be shorter than the header (trailing empty cells).
func FromTable(table [][]string) (*Roster, error) {
	if len(table) == 0 {
		return &Roster{Students: []model.StudentRecord{}, Skipped: []model.SkippedRecord{}}, nil
	}

	header := make([]string, len(table[0]))
	present := make(map[string]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = canonicalHeader(h)
		if header[i] != "" {
			present[header[i]] = ""
		}
	}
	if err := requireColumns(present); err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(table)-1)
	for _, cells := range table[1:] {
		row := make(map[string]string, len(header))
		for i, key := range header {
			if key == "" || i >= len(cells) {
				continue
			}
			row[key] = cells[i]
		}
		rows = append(rows, row)
	}

	_, hasID := present[colID]
	return fromRows(rows, hasID), nil
}

func requireColumns(row map[string]string) error {
	for _, col := range []string{colName, colAverage} {
		if _, ok := row[col]; !ok {
			return fmt.Errorf("roster is missing the %q column", col)
		}
	}
	return nil
}

// fromRows converts canonical rows to records. Without an id column the
// 1-based data row number is used as the student id.
func fromRows(rows []map[string]string, hasIDColumn bool) *Roster {
	roster := &Roster{
		Students: make([]model.StudentRecord, 0, len(rows)),
		Skipped:  []model.SkippedRecord{},
	}

	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}

		id := strings.TrimSpace(row[colID])
		if !hasIDColumn {
			id = strconv.Itoa(i + 1)
		}
		name := strings.TrimSpace(row[colName])

		if id == "" || name == "" {
			roster.Skipped = append(roster.Skipped, model.SkippedRecord{
				Row:       i + 1,
				StudentID: id,
				Name:      name,
				Reason:    "row has no student id or name",
			})
			continue
		}

		var choices []string
		for _, col := range choiceColumns {
			if c := strings.TrimSpace(row[col]); c != "" {
				choices = append(choices, c)
			}
		}

		roster.Students = append(roster.Students, model.StudentRecord{
			ID:      id,
			Name:    name,
			Average: ParseAverage(row[colAverage]),
			Channel: model.NormalizeChannel(row[colChannel]),
			Choices: choices,
			Row:     i + 1,
		})
	}

	return roster
}

func isBlankRow(row map[string]string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func canonicalHeader(h string) string {
	return headerAliases[strings.ToLower(strings.TrimSpace(h))]
}

// canonicalRow rekeys a csv row by canonical column, dropping unknown columns
func canonicalRow(rec map[string]string) map[string]string {
	row := make(map[string]string, len(rec))
	for k, v := range rec {
		if key := canonicalHeader(strings.TrimPrefix(k, "\ufeff")); key != "" {
			row[key] = v
		}
	}
	return row
}

// ParseAverage parses a roster average. Values that are not numbers become NaN
// so the record is reported by the allocator instead of being ranked.
func ParseAverage(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "٫", ".")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseSettings reads Dept_Name / Capacity rows into manual capacities.
// A blank or missing capacity cell counts as 0 seats.
func parseSettings(table [][]string) (map[string]int, error) {
	capacities := make(map[string]int)
	if len(table) == 0 {
		return capacities, nil
	}

	nameCol, capCol := -1, -1
	for i, h := range table[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "dept_name":
			nameCol = i
		case "capacity":
			capCol = i
		}
	}
	if nameCol < 0 || capCol < 0 {
		return nil, fmt.Errorf("settings sheet needs Dept_Name and Capacity columns")
	}

	for rowNum, cells := range table[1:] {
		if nameCol >= len(cells) || strings.TrimSpace(cells[nameCol]) == "" {
			continue
		}
		name := strings.TrimSpace(cells[nameCol])

		raw := ""
		if capCol < len(cells) {
			raw = strings.TrimSpace(cells[capCol])
		}
		if raw == "" {
			capacities[name] = 0
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 || value != math.Trunc(value) {
			return nil, fmt.Errorf("settings row %d: invalid capacity %q for %q", rowNum+2, raw, name)
		}
		capacities[name] = int(value)
	}

	return capacities, nil
}
