package portopt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/etnz/portopt/date"
)

const (
	// DefaultAlpha is the risk aversion coefficient of the default objective.
	DefaultAlpha = 0.005
	// DefaultTimeLimit bounds the search of a sampler.
	DefaultTimeLimit = 5 * time.Second
	// TransactionCostRate is the fraction of every trade paid as transaction cost
	// when transaction costs are enabled.
	TransactionCostRate = 0.01
	// FirstRebalance is the first row traded by a multi-period run, earlier rows
	// only feed the statistics.
	FirstRebalance = 3
)

// ErrTooFewMonths is returned when a multi-period run has no month to rebalance.
var ErrTooFewMonths = errors.New("not enough months to rebalance")

// Config holds the parameters shared by single and multi-period optimizations.
type Config struct {
	Budget    float64       `json:"budget"`
	Alpha     float64       `json:"alpha"`
	TCost     float64       `json:"t_cost"`          // transaction cost rate, 0 disables transaction costs
	Gamma     float64       `json:"gamma,omitempty"` // budget penalty weight of a DQM, 0 for automatic
	Model     SolverType    `json:"model"`
	Sampler   SamplerType   `json:"sampler"`
	TimeLimit time.Duration `json:"time_limit"`
	Seed      uint64        `json:"seed,omitempty"`
}

// Solution is the optimized portfolio of one period.
type Solution struct {
	Stocks          map[string]int `json:"stocks"` // number of shares per ticker
	Return          float64        `json:"return"` // estimated monthly return
	Risk            float64        `json:"risk"`   // variance of the portfolio value
	Cost            float64        `json:"cost"`   // purchase cost
	Sales           float64        `json:"sales"`  // sales revenue
	TransactionCost float64        `json:"transaction_cost"`
	Value           float64        `json:"value"` // value of the portfolio after the trade
	Feasible        bool           `json:"feasible"`
}

// solve runs the configured sampler on m within the time limit.
func solve(ctx context.Context, cfg Config, m *model) (Solution, error) {
	limit := cfg.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	x, err := sample(ctx, cfg, m, limit)
	if err != nil {
		return Solution{}, err
	}
	if e := m.evaluate(x); e.shortfall > 0 {
		// no assignment invests enough of the budget, search again without the bound.
		m.lower = 0
		log.Printf("no portfolio invests %.1f%% of the budget, lower budget bound relaxed", lowerBudgetRatio*100)
		if x, err = sample(ctx, cfg, m, limit); err != nil {
			return Solution{}, err
		}
	}
	return m.solution(x), nil
}

// sample runs the configured sampler on m for at most 'limit'.
func sample(ctx context.Context, cfg Config, m *model, limit time.Duration) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	return newSampler(cfg).sample(ctx, m)
}

// SinglePeriod optimizes a portfolio once, on the full price history.
type SinglePeriod struct {
	Config
}

// Run optimizes the allocation of the budget among the columns of 'prices'.
// The last row of 'prices' is the trading price.
func (o *SinglePeriod) Run(ctx context.Context, prices *Table, goal Goal) (Solution, error) {
	m, err := newModel(o.Config, prices, nil, o.Budget, goal)
	if err != nil {
		return Solution{}, err
	}
	return solve(ctx, o.Config, m)
}

// Step is the outcome of one rebalancing of a multi-period run.
type Step struct {
	Index    int       `json:"index"`    // row of the price table
	Date     date.Date `json:"date"`     // date of that row
	Value    float64   `json:"value"`    // portfolio value minus the initial budget, before the trade
	Baseline float64   `json:"baseline"` // fund value minus the initial budget
	Cash     float64   `json:"cash"`     // cash left after the trade
	Solution Solution  `json:"solution"`
}

// MultiResult gathers every step of a multi-period run.
type MultiResult struct {
	Steps []Step `json:"steps"`
}

// Values returns the portfolio values of all steps, as plotted against the break-even line.
func (r *MultiResult) Values() []float64 {
	v := make([]float64, len(r.Steps))
	for i, s := range r.Steps {
		v[i] = s.Value
	}
	return v
}

// BaselineValues returns the fund values of all steps.
func (r *MultiResult) BaselineValues() []float64 {
	v := make([]float64, len(r.Steps))
	for i, s := range r.Steps {
		v[i] = s.Baseline
	}
	return v
}

// MultiPeriod rebalances a portfolio every month and compares it to a fund
// investing the same budget in a baseline index.
type MultiPeriod struct {
	Config
	Baseline string // ticker of the baseline, informative only
}

// Run rebalances the portfolio for every row of 'prices' from FirstRebalance on.
//
// At row i, the model is built on rows [0, i] and trades at the prices of row i,
// with the value of the current portfolio as budget. 'baseline' must have the
// same rows as 'prices'; its first column is the fund. 'progress', if not nil,
// is called after every step.
func (o *MultiPeriod) Run(ctx context.Context, prices, baseline *Table, progress func(Step)) (*MultiResult, error) {
	if prices.Len() <= FirstRebalance {
		return nil, fmt.Errorf("%w: got %d months, want more than %d", ErrTooFewMonths, prices.Len(), FirstRebalance)
	}
	if baseline == nil || len(baseline.Columns) == 0 || baseline.Len() != prices.Len() {
		return nil, fmt.Errorf("baseline must have one column and the same %d rows as prices", prices.Len())
	}
	fund := baseline.values[0]
	units := o.Budget / fund[FirstRebalance]

	res := new(MultiResult)
	held := make(map[string]int)
	cash := o.Budget
	for i := FirstRebalance; i < prices.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		value := cash
		for c, name := range prices.Columns {
			value += float64(held[name]) * prices.values[c][i]
		}

		m, err := newModel(o.Config, prices.Slice(0, i+1), held, value, Goal{})
		if err != nil {
			return res, fmt.Errorf("month %v: %w", prices.Dates[i], err)
		}
		sol, err := solve(ctx, o.Config, m)
		if err != nil {
			return res, fmt.Errorf("month %v: %w", prices.Dates[i], err)
		}

		held = sol.Stocks
		cash = value - sol.Value - sol.TransactionCost
		step := Step{
			Index:    i,
			Date:     prices.Dates[i],
			Value:    value - o.Budget,
			Baseline: units*fund[i] - o.Budget,
			Cash:     cash,
			Solution: sol,
		}
		log.Printf("rebalanced on %v: value %v, fund %v", step.Date, USD(value), USD(units*fund[i]))
		res.Steps = append(res.Steps, step)
		if progress != nil {
			progress(step)
		}
	}
	return res, nil
}
