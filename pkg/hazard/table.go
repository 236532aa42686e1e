package hazard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Table is an engine CSV export: an optional "#" line of key=value
// metadata, a header row, then data rows.
type Table struct {
	Meta    map[string]string
	Columns []string
	Rows    [][]string
}

var metaPattern = regexp.MustCompile(`(\w+)=('[^']*'|\[[^\]]*\]|[^,]*)`)

// ReadTable parses an engine CSV export
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	t := &Table{Meta: map[string]string{}}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table: %w", err)
		}

		switch {
		case len(record) > 0 && strings.HasPrefix(record[0], "#"):
			parseMeta(strings.Join(record, ","), t.Meta)
		case t.Columns == nil:
			t.Columns = record
		default:
			t.Rows = append(t.Rows, record)
		}
	}

	if t.Columns == nil {
		return nil, fmt.Errorf("read table: no header row")
	}
	return t, nil
}

func parseMeta(line string, meta map[string]string) {
	for _, m := range metaPattern.FindAllStringSubmatch(line, -1) {
		meta[m[1]] = strings.Trim(strings.TrimSpace(m[2]), `'"`)
	}
}

// Column returns the index of a named column or -1
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Float parses the cell at row, col
func (t *Table) Float(row, col int) (float64, error) {
	if row < 0 || row >= len(t.Rows) {
		return 0, fmt.Errorf("row %d out of range (%d rows)", row, len(t.Rows))
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return 0, fmt.Errorf("row %d: column %d out of range", row, col)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(t.Rows[row][col]), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d, column %d: %w", row, col, err)
	}
	return v, nil
}

// MetaFloat parses a numeric metadata entry such as investigation_time
func (t *Table) MetaFloat(key string) (float64, bool) {
	raw, ok := t.Meta[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
