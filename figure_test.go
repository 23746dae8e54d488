package portopt

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/go-cmp/cmp"
)

// query evaluates a JSONPath expression on the JSON encoding of fig.
func query(t *testing.T, fig *Figure, path string) any {
	t.Helper()
	b, err := json.Marshal(fig)
	if err != nil {
		t.Fatalf("json.Marshal(figure) unexpected error = %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatal(err)
	}
	res, err := jsonpath.Get(path, v)
	if err != nil {
		t.Fatalf("jsonpath.Get(%q) unexpected error = %v", path, err)
	}
	return res
}

func TestInputGraph(t *testing.T) {
	prices := basicData(t)
	fig := InputGraph(prices)

	if got := query(t, fig, "$.layout.title.text"); got != "Historical Stock Data" {
		t.Errorf("title = %v", got)
	}
	names := query(t, fig, "$.data[*].name")
	if diff := cmp.Diff([]any{"AAPL", "MSFT", "AAL", "WMT"}, names); diff != "" {
		t.Errorf("trace names mismatch (-want +got):\n%s", diff)
	}
	if got := query(t, fig, "$.data[0].hovertemplate"); got != "$%{y:.2f}" {
		t.Errorf("hovertemplate = %v", got)
	}
	if got := query(t, fig, "$.layout.hovermode"); got != "x" {
		t.Errorf("hovermode = %v", got)
	}
	if got, want := len(fig.Layout.XAxis.TickVals), (prices.Len()+1)/2; got != want {
		t.Errorf("len(tickvals) = %d, want %d", got, want)
	}
	if fig.Layout.XAxis.TickVals[1] != prices.Dates[2].String() {
		t.Errorf("tickvals[1] = %v, want the third month", fig.Layout.XAxis.TickVals[1])
	}
}

func TestHistoricalGraphSkipsMonth(t *testing.T) {
	prices, err := DecodeCSV(strings.NewReader("Date,Month,A\n2010-01-29,1,10\n"))
	if err != nil {
		t.Fatal(err)
	}
	fig := HistoricalGraph(prices)
	if len(fig.Data) != 1 || fig.Data[0].Name != "A" {
		t.Errorf("HistoricalGraph() traces = %v, want only A", fig.Data)
	}
	if fig.Layout.XAxis.Title.Text != "Month" || fig.Layout.YAxis.Title.Text != "Price" {
		t.Errorf("HistoricalGraph() axes = %+v", fig.Layout)
	}
}

func TestOutputGraph(t *testing.T) {
	prices := basicData(t)
	fig, err := InitOutputGraph(prices, 1000)
	if err != nil {
		t.Fatalf("InitOutputGraph() unexpected error = %v", err)
	}
	if got := fig.Layout.Title.Text; got != "January 2010 - December 2012" {
		t.Errorf("title = %q", got)
	}
	if diff := cmp.Diff([]float64{-1500, 1500}, fig.Layout.YAxis.Range); diff != "" {
		t.Errorf("y range mismatch (-want +got):\n%s", diff)
	}
	if len(fig.Data) != 1 || fig.Data[0].Name != "Break-even" || fig.Data[0].Line.Color != "red" {
		t.Fatalf("InitOutputGraph() traces = %+v", fig.Data)
	}

	if err := UpdateOutputGraph(fig, 4, []float64{0}, []float64{0}, prices); err == nil {
		t.Errorf("UpdateOutputGraph() before the first rebalancing expected an error")
	}
	if err := UpdateOutputGraph(fig, 3, []float64{0}, []float64{0}, prices); err != nil {
		t.Fatalf("UpdateOutputGraph(3) unexpected error = %v", err)
	}
	if err := UpdateOutputGraph(fig, 4, []float64{0, 12}, []float64{0, -3}, prices); err != nil {
		t.Fatalf("UpdateOutputGraph(4) unexpected error = %v", err)
	}
	if len(fig.Data) != 3 {
		t.Fatalf("len(traces) = %d, want 3", len(fig.Data))
	}
	opt, fund := fig.Data[1], fig.Data[2]
	if opt.Name != "Optimized portfolio" || fund.Name != "Fund portfolio" {
		t.Errorf("trace names = %q, %q", opt.Name, fund.Name)
	}
	want := []string{prices.Dates[3].String(), prices.Dates[4].String()}
	if diff := cmp.Diff(want, opt.X); diff != "" {
		t.Errorf("optimized x mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Values{0, -3}, fund.Y); diff != "" {
		t.Errorf("fund y mismatch (-want +got):\n%s", diff)
	}

	// rebuilding the graph from the steps gives the same figure.
	replayed, err := OutputGraph(prices, 1000, &MultiResult{Steps: []Step{
		{Index: 3, Value: 0, Baseline: 0},
		{Index: 4, Value: 12, Baseline: -3},
	}})
	if err != nil {
		t.Fatalf("OutputGraph() unexpected error = %v", err)
	}
	wantJSON, _ := json.Marshal(fig)
	got, _ := json.Marshal(replayed)
	if string(got) != string(wantJSON) {
		t.Errorf("OutputGraph() = %s, want %s", got, wantJSON)
	}
}

func TestValuesJSON(t *testing.T) {
	v := Values{1, math.NaN(), 2.5}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[1,null,2.5]" {
		t.Errorf("json.Marshal(%v) = %s", v, b)
	}
	var got Values
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || !math.IsNaN(got[1]) || got[2] != 2.5 {
		t.Errorf("json.Unmarshal(%s) = %v", b, got)
	}
}
