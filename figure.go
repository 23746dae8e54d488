package portopt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Figure is a chart, serialized in the JSON format plotly.js consumes.
type Figure struct {
	Data   []*Trace `json:"data"`
	Layout Layout   `json:"layout"`
}

// Trace is a plotly scatter trace.
type Trace struct {
	Type          string   `json:"type"`
	X             []string `json:"x"`
	Y             Values   `json:"y"`
	Mode          string   `json:"mode,omitempty"`
	Name          string   `json:"name,omitempty"`
	Line          *Line    `json:"line,omitempty"`
	HoverTemplate string   `json:"hovertemplate,omitempty"`
	HoverInfo     string   `json:"hoverinfo,omitempty"`
}

type Line struct {
	Color string `json:"color"`
}

type Layout struct {
	Title     *Title `json:"title,omitempty"`
	XAxis     Axis   `json:"xaxis"`
	YAxis     Axis   `json:"yaxis"`
	HoverMode string `json:"hovermode,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title      *Title    `json:"title,omitempty"`
	TickFormat string    `json:"tickformat,omitempty"`
	TickVals   []string  `json:"tickvals,omitempty"`
	Range      []float64 `json:"range,omitempty"`
}

// Values is a series of numbers where NaN is encoded as a JSON null, a gap in plotly.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	var b bytes.Buffer
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			b.WriteString("null")
			continue
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	res := make(Values, len(raw))
	for i, f := range raw {
		if f == nil {
			res[i] = math.NaN()
			continue
		}
		res[i] = *f
	}
	*v = res
	return nil
}

// dateLabels returns the plotly x values of the rows of t.
func dateLabels(t *Table) []string {
	x := make([]string, t.Len())
	for i, d := range t.Dates {
		x[i] = d.String()
	}
	return x
}

// everyOther returns one label out of two, the tick values of monthly axes.
func everyOther(labels []string) []string {
	res := make([]string, 0, (len(labels)+1)/2)
	for i := 0; i < len(labels); i += 2 {
		res = append(res, labels[i])
	}
	return res
}

// HistoricalGraph plots one line per ticker of t.
func HistoricalGraph(t *Table) *Figure {
	fig := new(Figure)
	x := dateLabels(t)
	for c, name := range t.Columns {
		if name == "Month" {
			continue
		}
		fig.Data = append(fig.Data, &Trace{
			Type: "scatter",
			X:    x,
			Y:    Values(t.values[c]),
			Mode: "lines",
			Name: name,
		})
	}
	fig.Layout = Layout{
		Title: &Title{"Historical Stock Data"},
		XAxis: Axis{Title: &Title{"Month"}},
		YAxis: Axis{Title: &Title{"Price"}},
	}
	return fig
}

// InputGraph is the HistoricalGraph shown in the input tab: dollar hover
// labels and a tick every other month.
func InputGraph(t *Table) *Figure {
	fig := HistoricalGraph(t)
	for _, tr := range fig.Data {
		tr.HoverTemplate = "$%{y:.2f}"
	}
	fig.Layout.HoverMode = "x"
	fig.Layout.XAxis.TickFormat = "%b %Y"
	fig.Layout.XAxis.TickVals = everyOther(dateLabels(t))
	return fig
}

// firstValid returns the first row index with at least one value, or -1.
func firstValid(t *Table, rows func(int) int) int {
	for k := 0; k < t.Len(); k++ {
		r := rows(k)
		for c := range t.Columns {
			if !math.IsNaN(t.values[c][r]) {
				return r
			}
		}
	}
	return -1
}

// InitOutputGraph returns the result chart of a multi-period run before any
// step: a break-even line over the dates of t, and a y range of 1.5 budget.
func InitOutputGraph(t *Table, budget float64) (*Figure, error) {
	first := firstValid(t, func(k int) int { return k })
	last := firstValid(t, func(k int) int { return t.Len() - 1 - k })
	if first < 0 {
		return nil, fmt.Errorf("no valid price to plot")
	}
	x := dateLabels(t)
	fig := &Figure{
		Data: []*Trace{{
			Type:      "scatter",
			X:         x,
			Y:         make(Values, len(x)),
			Mode:      "lines",
			Line:      &Line{Color: "red"},
			Name:      "Break-even",
			HoverInfo: "none",
		}},
		Layout: Layout{
			Title:     &Title{fmt.Sprintf("%s - %s", t.Dates[first].Format("January 2006"), t.Dates[last].Format("January 2006"))},
			XAxis:     Axis{TickFormat: "%b %Y", TickVals: everyOther(x)},
			YAxis:     Axis{Range: []float64{-1.5 * budget, 1.5 * budget}},
			HoverMode: "x",
		},
	}
	return fig, nil
}

// UpdateOutputGraph adds the step i of a multi-period run to fig.
//
// The first rebalancing creates the "Optimized portfolio" and "Fund portfolio"
// traces; later ones extend their x with the date of row i. In both cases
// their y are replaced with 'values' and 'baseline', the full series so far.
func UpdateOutputGraph(fig *Figure, i int, values, baseline []float64, t *Table) error {
	if i < 0 || i >= t.Len() {
		return fmt.Errorf("row %d out of range [0, %d)", i, t.Len())
	}
	x := t.Dates[i].String()
	if i == FirstRebalance {
		fig.Data = append(fig.Data,
			&Trace{
				Type:          "scatter",
				X:             []string{x},
				Y:             Values(values),
				Mode:          "lines",
				Line:          &Line{Color: "blue"},
				Name:          "Optimized portfolio",
				HoverTemplate: "$%{y:.2f}",
			},
			&Trace{
				Type:          "scatter",
				X:             []string{x},
				Y:             Values(baseline),
				Mode:          "lines",
				Line:          &Line{Color: "grey"},
				Name:          "Fund portfolio",
				HoverTemplate: "$%{y:.2f}",
			})
		return nil
	}
	if len(fig.Data) < 3 {
		return fmt.Errorf("row %d: the output graph has no portfolio trace yet", i)
	}
	fig.Data[1].X = append(fig.Data[1].X, x)
	fig.Data[1].Y = Values(values)
	fig.Data[2].X = append(fig.Data[2].X, x)
	fig.Data[2].Y = Values(baseline)
	return nil
}

// OutputGraph replays every step of r on a fresh output graph.
func OutputGraph(t *Table, budget float64, r *MultiResult) (*Figure, error) {
	fig, err := InitOutputGraph(t, budget)
	if err != nil {
		return nil, err
	}
	values, baseline := r.Values(), r.BaselineValues()
	for k, s := range r.Steps {
		if err := UpdateOutputGraph(fig, s.Index, values[:k+1], baseline[:k+1], t); err != nil {
			return nil, err
		}
	}
	return fig, nil
}

// AllocationGraph is a bar chart of the shares of a solution.
func AllocationGraph(s Solution) *Figure {
	tr := &Trace{Type: "bar", Name: "Shares"}
	for _, a := range s.Allocations() {
		tr.X = append(tr.X, a.Ticker)
		tr.Y = append(tr.Y, float64(a.Shares))
	}
	return &Figure{
		Data: []*Trace{tr},
		Layout: Layout{
			Title: &Title{"Optimized Allocation"},
			XAxis: Axis{Title: &Title{"Stock"}},
			YAxis: Axis{Title: &Title{"Shares"}},
		},
	}
}
