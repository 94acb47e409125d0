package triage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadReferenceTable reads a CSV or TSV reference table. Every failure is an
// ErrConfiguration: the table is required before any conversation can run.
func LoadReferenceTable(path string) ([]ReferenceEntry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: reference table path is empty", ErrConfiguration)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConfiguration, filepath.Base(path), err)
	}
	defer f.Close()
	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}
	entries, err := ParseReferenceTable(f, comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// ParseReferenceTable decodes a delimited table with a header row. The
// description and department columns are required; location and pain type
// are optional.
func ParseReferenceTable(r io.Reader, comma rune) ([]ReferenceEntry, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read table: %v", ErrConfiguration, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty reference table", ErrConfiguration)
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	candidates := getColumnCandidates()
	descCol := findColumn(header, candidates.Description)
	if descCol < 0 {
		return nil, fmt.Errorf("%w: missing description column (one of %s)", ErrConfiguration, strings.Join(candidates.Description, ", "))
	}
	deptCol := findColumn(header, candidates.Department)
	if deptCol < 0 {
		return nil, fmt.Errorf("%w: missing department column (one of %s)", ErrConfiguration, strings.Join(candidates.Department, ", "))
	}
	locCol := findColumn(header, candidates.Location)
	painCol := findColumn(header, candidates.PainType)

	entries := make([]ReferenceEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		line := i + 2
		entry := ReferenceEntry{
			Description: cellAt(row, descCol),
			Department:  cellAt(row, deptCol),
			Location:    cellAt(row, locCol),
			PainType:    cellAt(row, painCol),
		}
		if entry.Description == "" {
			return nil, fmt.Errorf("%w: line %d: empty description", ErrConfiguration, line)
		}
		if entry.Department == "" {
			return nil, fmt.Errorf("%w: line %d: empty department", ErrConfiguration, line)
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: reference table has no rows", ErrConfiguration)
	}
	return entries, nil
}

// DistinctValues collects the non-empty values of a field in table order.
func DistinctValues(entries []ReferenceEntry, field func(ReferenceEntry) string) []string {
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, field(e))
	}
	return uniqueKeys(values)
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return cleanCell(row[col])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}
