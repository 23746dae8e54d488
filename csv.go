package portopt

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/etnz/portopt/date"
)

// DecodeCSV reads a price table from CSV.
//
// The first column is the date index (usually named "Month" or "Date"), every
// other column holds the prices of one ticker. Empty cells are missing values.
func DecodeCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("csv must have a date column and at least one ticker column, got %v", header)
	}

	dates := make([]date.Date, 0, len(records)-1)
	for i, rec := range records[1:] {
		d, err := date.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		dates = append(dates, d)
	}

	t := NewTable(dates, header[1:]...)
	t.Index = header[0]
	if t.Index == "" {
		t.Index = "Date"
	}
	for r, rec := range records[1:] {
		for c, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: invalid price %q: %w", r+2, header[c+1], cell, err)
			}
			t.values[c][r] = v
		}
	}
	return t, nil
}

// EncodeCSV writes t as CSV, the inverse of DecodeCSV.
func EncodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	index := t.Index
	if index == "" {
		index = "Date"
	}
	if err := cw.Write(append([]string{index}, t.Columns...)); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns)+1)
	for r, d := range t.Dates {
		rec[0] = d.String()
		for c := range t.Columns {
			v := t.values[c][r]
			if math.IsNaN(v) {
				rec[c+1] = ""
				continue
			}
			rec[c+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
