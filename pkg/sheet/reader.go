// Package sheet reads tabular rows out of uploaded xlsx workbooks.
package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is a single data row keyed by the canonical column name.
type Row struct {
	// Line is the 1-based worksheet line the row came from.
	Line   int
	Values map[string]string
}

// Get returns the trimmed cell value for column.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// MissingColumnsError reports required header cells that were not found.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Read opens the workbook, takes its first worksheet and maps every data row onto the
// required columns. Header matching ignores case and surrounding/inner whitespace runs.
// Completely empty rows are skipped.
func Read(r io.Reader, required []string) ([]Row, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close() //nolint:errcheck

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	grid, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return nil, &MissingColumnsError{Missing: append([]string(nil), required...)}
	}

	positions := make(map[string]int, len(grid[0]))
	for i, cell := range grid[0] {
		key := normalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	columns := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		idx, ok := positions[normalizeHeader(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = idx
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	rows := make([]Row, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		if isBlank(cells) {
			continue
		}
		values := make(map[string]string, len(columns))
		for name, idx := range columns {
			if idx < len(cells) {
				values[name] = cells[idx]
			}
		}
		rows = append(rows, Row{Line: i + 2, Values: values})
	}
	return rows, nil
}

func normalizeHeader(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
