package portopt

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/etnz/portopt/date"
)

// ErrTooFewStocks is returned when less than two stocks have valid prices.
var ErrTooFewStocks = errors.New("there must be at least 2 valid stock tickers")

// Table is a frame of prices: one row per date, one column per ticker.
//
// Missing values are represented by NaN.
type Table struct {
	Index   string      // name of the date index column, e.g. "Month"
	Dates   []date.Date // row labels, chronological
	Columns []string    // column labels
	values  [][]float64 // values[column][row]
}

// NewTable returns a table with the given rows and columns, filled with NaN.
func NewTable(dates []date.Date, columns ...string) *Table {
	t := &Table{
		Index:   "Month",
		Dates:   slices.Clone(dates),
		Columns: slices.Clone(columns),
		values:  make([][]float64, len(columns)),
	}
	for i := range t.values {
		col := make([]float64, len(dates))
		for j := range col {
			col[j] = math.NaN()
		}
		t.values[i] = col
	}
	return t
}

// NewTableFromHistories builds a table on the union of the dates of all histories.
// A column gets NaN on the dates its history does not have.
func NewTableFromHistories(columns []string, histories []*date.History[float64]) (*Table, error) {
	if len(columns) != len(histories) {
		return nil, fmt.Errorf("got %d columns for %d histories", len(columns), len(histories))
	}
	var dates []date.Date
	for d := range date.Iterate(histories...) {
		dates = append(dates, d)
	}
	t := NewTable(dates, columns...)
	for c, h := range histories {
		for r, d := range dates {
			if v, ok := h.Get(d); ok {
				t.values[c][r] = v
			}
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Dates) }

// ColumnIndex returns the position of column 'name' or -1.
func (t *Table) ColumnIndex(name string) int { return slices.Index(t.Columns, name) }

// Column returns the values of the column 'name', or nil if there is no such column.
// The returned slice must not be modified.
func (t *Table) Column(name string) []float64 {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	return t.values[i]
}

// At returns the value at row r for column c.
func (t *Table) At(r, c int) float64 { return t.values[c][r] }

// Set sets the value at row r for column c.
func (t *Table) Set(r, c int, v float64) { t.values[c][r] = v }

// Row returns a copy of row r.
func (t *Table) Row(r int) []float64 {
	row := make([]float64, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.values[c][r]
	}
	return row
}

// Last returns the date and the values of the last row.
func (t *Table) Last() (date.Date, []float64) {
	if t.Len() == 0 {
		return date.Date{}, nil
	}
	last := t.Len() - 1
	return t.Dates[last], t.Row(last)
}

// Slice returns the rows [i, j) as a new table.
func (t *Table) Slice(i, j int) *Table {
	s := &Table{
		Index:   t.Index,
		Dates:   slices.Clone(t.Dates[i:j]),
		Columns: slices.Clone(t.Columns),
		values:  make([][]float64, len(t.Columns)),
	}
	for c := range t.values {
		s.values[c] = slices.Clone(t.values[c][i:j])
	}
	return s
}

// Select returns a new table with only the given columns, in that order.
func (t *Table) Select(columns ...string) (*Table, error) {
	s := NewTable(t.Dates, columns...)
	s.Index = t.Index
	for i, name := range columns {
		c := t.ColumnIndex(name)
		if c < 0 {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		copy(s.values[i], t.values[c])
	}
	return s, nil
}

// DropInvalid removes every column that contains a missing value.
// It returns the names of the dropped columns.
func (t *Table) DropInvalid() (dropped []string) {
	var columns []string
	var values [][]float64
	for c, name := range t.Columns {
		if slices.ContainsFunc(t.values[c], math.IsNaN) {
			dropped = append(dropped, name)
			continue
		}
		columns = append(columns, name)
		values = append(values, t.values[c])
	}
	t.Columns, t.values = columns, values
	return dropped
}

// Returns computes the period over period percent change of every column.
//
// The returned table has one row less than t: the first row has no previous value.
func (t *Table) Returns() *Table {
	if t.Len() < 2 {
		return NewTable(nil, t.Columns...)
	}
	r := NewTable(t.Dates[1:], t.Columns...)
	r.Index = t.Index
	for c := range t.Columns {
		for i := 1; i < t.Len(); i++ {
			prev := t.values[c][i-1]
			r.values[c][i-1] = (t.values[c][i] - prev) / prev
		}
	}
	return r
}

// Mean returns the mean of each column.
func (t *Table) Mean() []float64 {
	mean := make([]float64, len(t.Columns))
	for c, col := range t.values {
		var sum float64
		for _, v := range col {
			sum += v
		}
		mean[c] = sum / float64(len(col))
	}
	return mean
}

// Covariance returns the sample covariance matrix of the columns (normalized by N-1).
func (t *Table) Covariance() [][]float64 {
	n := t.Len()
	mean := t.Mean()
	cov := make([][]float64, len(t.Columns))
	for i := range cov {
		cov[i] = make([]float64, len(t.Columns))
	}
	if n < 2 {
		return cov
	}
	for i := range t.Columns {
		for j := i; j < len(t.Columns); j++ {
			var sum float64
			for r := 0; r < n; r++ {
				sum += (t.values[i][r] - mean[i]) * (t.values[j][r] - mean[j])
			}
			cov[i][j] = sum / float64(n-1)
			cov[j][i] = cov[i][j]
		}
	}
	return cov
}
