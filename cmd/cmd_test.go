package cmd

import (
	"context"
	"errors"
	"flag"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/dashboard"
	"github.com/etnz/portopt/date"
	"github.com/etnz/portopt/store"
	"github.com/google/go-cmp/cmp"
)

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("portopt", flag.ContinueOnError)
	global.String("db", "", "")
	c := Completion(global)

	if _, ok := c.Flags["db"]; !ok {
		t.Errorf("global flag -db is not completed")
	}
	for _, e := range Commands {
		if _, ok := c.Sub[e.Cmd.Name()]; !ok {
			t.Errorf("subcommand %q is not completed", e.Cmd.Name())
		}
	}

	run := c.Sub["run"]
	if p, ok := run.Flags["multi"]; !ok || p != nil {
		t.Errorf("boolean flag -multi must be completed without value, got %v", p)
	}
	if got := run.Flags["sampler"].Predict(""); !slices.Contains(got, "classical") {
		t.Errorf("-sampler predictions = %v, want classical", got)
	}
	if got := c.Sub["topic"].Args.Predict(""); !slices.Contains(got, "solvers") {
		t.Errorf("topic predictions = %v, want solvers", got)
	}
}

func TestTopicUsage(t *testing.T) {
	usage := (&topicCmd{}).Usage()
	for _, topic := range []string{"solvers", "dashboard"} {
		if !strings.Contains(usage, topic) {
			t.Errorf("topic usage does not list %q:\n%s", topic, usage)
		}
	}
	if p, ok := Completion(flag.NewFlagSet("portopt", flag.ContinueOnError)).Sub["topic"].Flags["list"]; !ok || p != nil {
		t.Errorf("boolean flag -list must be completed without value, got %v", p)
	}
}

func TestFetchRequest(t *testing.T) {
	tests := []struct {
		name    string
		cmd     fetchCmd
		want    []string
		wantErr bool
	}{
		{"stocks", fetchCmd{from: "2010-01-01", to: "2012-12-31", stocks: "AAPL, MSFT,,WMT", baseline: "^GSPC"}, []string{"AAPL", "MSFT", "WMT"}, false},
		{"random", fetchCmd{from: "2010-01-01", to: "2012-12-31", num: 3}, nil, false},
		{"one stock", fetchCmd{from: "2010-01-01", to: "2012-12-31", stocks: "AAPL"}, nil, true},
		{"reversed", fetchCmd{from: "2012-12-31", to: "2010-01-01", stocks: "AAPL,MSFT"}, nil, true},
		{"bad date", fetchCmd{from: "2010-13-01", to: "2012-12-31", stocks: "AAPL,MSFT"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.cmd.request()
			if (err != nil) != tt.wantErr {
				t.Fatalf("request() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, req.Stocks); diff != "" {
				t.Errorf("request() stocks mismatch (-want +got):\n%s", diff)
			}
			if req.From != date.New(2010, 1, 1) || req.Num != tt.cmd.num {
				t.Errorf("request() = %+v", req)
			}
		})
	}
}

func TestRunRequest(t *testing.T) {
	c := runCmd{sampler: "classical", timeLimit: 2, budget: 500, multi: true}
	got, err := c.request()
	if err != nil {
		t.Fatalf("request() unexpected error = %v", err)
	}
	want := dashboard.RunRequest{Sampler: portopt.Classical, TimeLimit: 2, Budget: 500, Period: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request() mismatch (-want +got):\n%s", diff)
	}

	c.sampler = "quantum"
	if _, err := c.request(); err == nil {
		t.Errorf("request() with an unknown sampler expected an error")
	}
}

func TestReportOf(t *testing.T) {
	st, err := store.Open(store.Memory)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := reportOf(st, "", "Test"); !errors.Is(err, errNoRun) {
		t.Errorf("reportOf() on an empty history error = %v, want %v", err, errNoRun)
	}

	d, err := dashboard.LoadData("")
	if err != nil {
		t.Fatal(err)
	}
	req := dashboard.RunRequest{Sampler: portopt.Classical, TimeLimit: 1, Budget: 100}
	res, err := dashboard.Optimize(context.Background(), "r1", req, d.Table(), dashboard.SampleFund(d.Table()), nil)
	if err != nil {
		t.Fatalf("Optimize() unexpected error = %v", err)
	}
	done, err := dashboard.StoredRun("r1", time.Now(), "done", req, res)
	if err != nil {
		t.Fatal(err)
	}
	failed, _ := dashboard.StoredRun("r2", time.Now().Add(time.Second), "failed", req, nil)
	for _, r := range []store.Run{done, failed} {
		if err := st.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	md, err := reportOf(st, "r1", "Test")
	if err != nil {
		t.Fatalf("reportOf(r1) unexpected error = %v", err)
	}
	if !strings.HasPrefix(md, "# Test\n") || !strings.Contains(md, "## Allocation") {
		t.Errorf("reportOf(r1) = %s", md)
	}
	// the most recent run failed and has no report.
	if _, err := reportOf(st, "", "Test"); err == nil {
		t.Errorf("reportOf() of a failed run expected an error")
	}
	if _, err := reportOf(st, "unknown", "Test"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("reportOf(unknown) error = %v, want %v", err, store.ErrNotFound)
	}

	runs, err := st.List(0)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, s := range summaries(runs) {
		ids = append(ids, s.ID+":"+s.Status)
	}
	if diff := cmp.Diff([]string{"r2:failed", "r1:done"}, ids); diff != "" {
		t.Errorf("summaries() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" ,"); got != nil {
		t.Errorf("splitList(\" ,\") = %v, want nil", got)
	}
}
