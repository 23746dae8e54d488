package portopt

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/etnz/portopt/date"
	"github.com/google/go-cmp/cmp"
)

// toyPrices returns a table where A grows 10% a month without risk and B is flat.
func toyPrices() *Table {
	prices := NewTable([]date.Date{date.New(2010, 1, 29), date.New(2010, 2, 26), date.New(2010, 3, 31)}, "A", "B")
	for r, v := range []float64{10, 11, 12.1} {
		prices.Set(r, 0, v)
	}
	for r := range 3 {
		prices.Set(r, 1, 10)
	}
	return prices
}

func TestSinglePeriodToy(t *testing.T) {
	tests := []struct {
		name    string
		model   SolverType
		sampler SamplerType
		want    map[string]int
	}{
		// the only way to invest 99.7% of 100 is to buy 10 B.
		{"cqm classical", CQM, Classical, map[string]int{"A": 0, "B": 10}},
		{"cqm hybrid", CQM, Hybrid, map[string]int{"A": 0, "B": 10}},
		// the penalty lets the discrete model keep some cash to earn A's return.
		{"dqm classical", DQM, Classical, map[string]int{"A": 8, "B": 0}},
		{"dqm hybrid", DQM, Hybrid, map[string]int{"A": 8, "B": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &SinglePeriod{Config{
				Budget:    100,
				Alpha:     DefaultAlpha,
				Model:     tt.model,
				Sampler:   tt.sampler,
				TimeLimit: time.Second,
				Seed:      1,
			}}
			sol, err := o.Run(context.Background(), toyPrices(), Goal{})
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sol.Stocks); diff != "" {
				t.Errorf("Run() stocks mismatch (-want +got):\n%s", diff)
			}
			if sol.Cost > 100 {
				t.Errorf("Run() cost = %v exceeds the budget", sol.Cost)
			}
			if !sol.Feasible {
				t.Errorf("Run() solution is not feasible")
			}
		})
	}
}

func TestSinglePeriodRelaxedBudget(t *testing.T) {
	// both stocks fall, and no combination of shares invests 99.7% of 99.
	prices := NewTable([]date.Date{date.New(2010, 1, 29), date.New(2010, 2, 26), date.New(2010, 3, 31)}, "A", "B")
	for r, v := range []float64{40, 35, 30} {
		prices.Set(r, 0, v)
	}
	for r, v := range []float64{90, 80, 70} {
		prices.Set(r, 1, v)
	}
	for _, sampler := range []SamplerType{Classical, Hybrid} {
		t.Run(sampler.String(), func(t *testing.T) {
			o := &SinglePeriod{Config{
				Budget:    99,
				Alpha:     DefaultAlpha,
				Model:     CQM,
				Sampler:   sampler,
				TimeLimit: time.Second,
				Seed:      1,
			}}
			sol, err := o.Run(context.Background(), prices, Goal{})
			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			if diff := cmp.Diff(map[string]int{"A": 0, "B": 0}, sol.Stocks); diff != "" {
				t.Errorf("Run() stocks mismatch (-want +got):\n%s", diff)
			}
			if sol.Cost > 99 {
				t.Errorf("Run() cost = %v exceeds the budget", sol.Cost)
			}
			if !sol.Feasible {
				t.Errorf("Run() solution is not feasible once the lower bound is relaxed")
			}
		})
	}
}

func TestBetterRanksOverspendingLast(t *testing.T) {
	over := evaluation{violation: 1, objective: -100}
	under := evaluation{shortfall: 50, objective: 10}
	if better(over, under) {
		t.Errorf("better(%+v, %+v) = true, spending over the budget must rank last", over, under)
	}
	if !better(under, over) {
		t.Errorf("better(%+v, %+v) = false, want true", under, over)
	}
}

func TestSinglePeriodTransactionCost(t *testing.T) {
	o := &SinglePeriod{Config{
		Budget:    100,
		Alpha:     DefaultAlpha,
		TCost:     TransactionCostRate,
		Model:     CQM,
		Sampler:   Classical,
		TimeLimit: time.Second,
	}}
	sol, err := o.Run(context.Background(), toyPrices(), Goal{})
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if got := sol.Cost + sol.TransactionCost; got > 100+feasibilityTolerance {
		t.Errorf("Run() spends %v, more than the budget", got)
	}
	if want := TransactionCostRate * sol.Cost; sol.TransactionCost != want {
		t.Errorf("Run() transaction cost = %v, want %v", sol.TransactionCost, want)
	}
}

func TestSinglePeriodGoals(t *testing.T) {
	prices := basicData(t).Slice(0, 12)
	cfg := Config{Budget: 300, Alpha: DefaultAlpha, Model: CQM, Sampler: Classical, TimeLimit: 2 * time.Second}

	base, err := (&SinglePeriod{cfg}).Run(context.Background(), prices, Goal{})
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}

	if base.Return <= 0 {
		t.Fatalf("Run() return = %v, the sample data should have a positive expected return", base.Return)
	}
	minReturn := base.Return / 2
	sol, err := (&SinglePeriod{cfg}).Run(context.Background(), prices, Goal{MinReturn: minReturn})
	if err != nil {
		t.Fatalf("Run(min return) unexpected error = %v", err)
	}
	if sol.Return < minReturn {
		t.Errorf("Run(min return) return = %v, want at least %v", sol.Return, minReturn)
	}
	if sol.Risk > base.Risk+feasibilityTolerance {
		t.Errorf("Run(min return) risk = %v, want at most the risk %v of a riskier goal", sol.Risk, base.Risk)
	}

	if _, err := (&SinglePeriod{cfg}).Run(context.Background(), prices, Goal{MinReturn: 1, MaxRisk: 1}); err == nil {
		t.Errorf("Run(min return and max risk) expected an error")
	}
}

func TestExhaustiveIsOptimal(t *testing.T) {
	prices := basicData(t).Slice(0, 12)
	cfg := Config{Budget: 300, Alpha: DefaultAlpha, Model: CQM, Seed: 3}
	m, err := newModel(cfg, prices, nil, cfg.Budget, Goal{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	exact, err := exhaustive{}.sample(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	approx, err := annealer{seed: 3, restarts: 4, sweeps: 500}.sample(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if better(m.evaluate(approx), m.evaluate(exact)) {
		t.Errorf("annealing found %v, better than the exhaustive search %v", approx, exact)
	}
}

func TestSamplerCancelled(t *testing.T) {
	prices := basicData(t)
	cfg := Config{Budget: 100000, Alpha: DefaultAlpha, Model: CQM, Sampler: Classical, TimeLimit: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&SinglePeriod{cfg}).Run(ctx, prices, Goal{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(cancelled) error = %v, want %v", err, context.Canceled)
	}
}

func TestSamplerTimeLimit(t *testing.T) {
	prices := basicData(t)
	// far too many shares to explore in the time limit.
	cfg := Config{Budget: 100000, Alpha: DefaultAlpha, Model: CQM, Sampler: Classical, TimeLimit: 100 * time.Millisecond}
	start := time.Now()
	sol, err := (&SinglePeriod{cfg}).Run(context.Background(), prices, Goal{})
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v, time limit was not honored", elapsed)
	}
	if sol.Cost > cfg.Budget {
		t.Errorf("Run() cost = %v exceeds the budget", sol.Cost)
	}
}

func TestMultiPeriod(t *testing.T) {
	prices := basicData(t).Slice(0, 8)
	baseline, err := prices.Select("WMT")
	if err != nil {
		t.Fatal(err)
	}
	o := &MultiPeriod{
		Config: Config{
			Budget:    300,
			Alpha:     DefaultAlpha,
			Model:     CQM,
			Sampler:   Hybrid,
			TimeLimit: 500 * time.Millisecond,
			Seed:      5,
		},
		Baseline: "WMT",
	}
	var steps []Step
	res, err := o.Run(context.Background(), prices, baseline, func(s Step) { steps = append(steps, s) })
	if err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if len(res.Steps) != 5 || len(steps) != 5 {
		t.Fatalf("Run() made %d steps and reported %d, want 5", len(res.Steps), len(steps))
	}
	first := res.Steps[0]
	if first.Index != FirstRebalance || first.Value != 0 || math.Abs(first.Baseline) > 1e-9 {
		t.Errorf("first step = %+v, want index %d at break-even", first, FirstRebalance)
	}
	for _, s := range res.Steps {
		if s.Cash < -feasibilityTolerance {
			t.Errorf("step %d: negative cash %v", s.Index, s.Cash)
		}
		if s.Date != prices.Dates[s.Index] {
			t.Errorf("step %d: date %v, want %v", s.Index, s.Date, prices.Dates[s.Index])
		}
	}
}

func TestMultiPeriodTooFewMonths(t *testing.T) {
	prices := toyPrices()
	o := &MultiPeriod{Config: Config{Budget: 100}}
	if _, err := o.Run(context.Background(), prices, prices, nil); !errors.Is(err, ErrTooFewMonths) {
		t.Errorf("Run() error = %v, want %v", err, ErrTooFewMonths)
	}
}

func TestParseSamplerType(t *testing.T) {
	tests := []struct {
		in   string
		want SamplerType
		err  bool
	}{
		{"0", Hybrid, false},
		{"1", Classical, false},
		{"hybrid", Hybrid, false},
		{"Classical", Classical, false},
		{"2", Hybrid, true},
	}
	for _, tt := range tests {
		got, err := ParseSamplerType(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseSamplerType(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSamplerType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if SolverFor(Hybrid) != CQM || SolverFor(Classical) != DQM {
		t.Errorf("SolverFor() does not map hybrid to CQM and classical to DQM")
	}
}
