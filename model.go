package portopt

import (
	"fmt"
	"math"
)

// lowerBudgetRatio is the fraction of the budget a constrained model must at least invest.
const lowerBudgetRatio = 0.997

// feasibilityTolerance absorbs float rounding when checking constraints.
const feasibilityTolerance = 1e-6

// Goal switches the objective of the model.
//
// With both fields zero, the model minimizes alpha*risk - return.
// MinReturn > 0 minimizes risk subject to return >= MinReturn.
// MaxRisk > 0 maximizes return subject to risk <= MaxRisk.
type Goal struct {
	MinReturn float64 `json:"min_return,omitempty"`
	MaxRisk   float64 `json:"max_risk,omitempty"`
}

// model is the quadratic program over integer shares of each stock.
type model struct {
	kind   SolverType
	stocks []string
	price  []float64   // price of one share, last row of the window
	mean   []float64   // mean monthly return
	cov    [][]float64 // covariance of monthly returns
	upper  []int       // maximum number of shares for each stock
	held   []int       // shares held before the trade
	budget float64
	alpha  float64
	tcost  float64
	gamma  float64 // weight of the budget penalty in a discrete model
	lower  float64 // ratio of the budget that must be invested, relaxed to 0 when infeasible
	goal   Goal
}

// newModel builds the model of 'prices' (window of monthly prices, last row is the trading price).
func newModel(cfg Config, prices *Table, held map[string]int, budget float64, goal Goal) (*model, error) {
	if prices.Len() < 3 {
		return nil, fmt.Errorf("at least 3 months of prices are required, got %d", prices.Len())
	}
	if len(prices.Columns) < 2 {
		return nil, ErrTooFewStocks
	}
	if budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %v", budget)
	}
	if goal.MinReturn > 0 && goal.MaxRisk > 0 {
		return nil, fmt.Errorf("min return and max risk are mutually exclusive")
	}
	returns := prices.Returns()
	_, last := prices.Last()
	m := &model{
		kind:   cfg.Model,
		stocks: prices.Columns,
		price:  last,
		mean:   returns.Mean(),
		cov:    returns.Covariance(),
		upper:  make([]int, len(prices.Columns)),
		held:   make([]int, len(prices.Columns)),
		budget: budget,
		alpha:  cfg.Alpha,
		tcost:  cfg.TCost,
		gamma:  cfg.Gamma,
		lower:  lowerBudgetRatio,
		goal:   goal,
	}
	if m.gamma <= 0 {
		m.gamma = 10 / budget
	}
	for i, p := range m.price {
		if math.IsNaN(p) || p <= 0 {
			return nil, fmt.Errorf("invalid price %v for %s", p, m.stocks[i])
		}
		m.upper[i] = int(math.Floor(budget / p))
		m.held[i] = held[m.stocks[i]]
	}
	return m, nil
}

// evaluation holds the figures of an assignment.
type evaluation struct {
	ret       float64 // estimated monthly return, in currency
	risk      float64 // variance of the portfolio value
	cost      float64 // value of the new portfolio
	purchase  float64 // cost of the shares bought
	sales     float64 // revenue of the shares sold
	tcost     float64 // transaction cost
	objective float64
	violation float64 // violation of the hard constraints, 0 when they hold
	shortfall float64 // missing investment under the lower budget bound
}

// infeasibility is the total constraint violation, 0 when feasible.
func (e evaluation) infeasibility() float64 { return e.violation + e.shortfall }

// spent is what the trade consumes from the budget.
func (e evaluation) spent() float64 { return e.cost + e.tcost }

func (m *model) evaluate(x []int) evaluation {
	var e evaluation
	for i, n := range x {
		v := m.price[i] * float64(n)
		e.cost += v
		e.ret += m.mean[i] * v
		for j, k := range x {
			e.risk += m.cov[i][j] * v * m.price[j] * float64(k)
		}
		if d := n - m.held[i]; d > 0 {
			e.purchase += m.price[i] * float64(d)
		} else {
			e.sales -= m.price[i] * float64(d)
		}
	}
	e.tcost = m.tcost * (e.purchase + e.sales)

	switch {
	case m.goal.MinReturn > 0:
		e.objective = e.risk
		e.violation += math.Max(0, m.goal.MinReturn-e.ret)
	case m.goal.MaxRisk > 0:
		e.objective = -e.ret
		e.violation += math.Max(0, e.risk-m.goal.MaxRisk)
	default:
		e.objective = m.alpha*e.risk - e.ret
	}

	switch m.kind {
	case DQM:
		d := e.spent() - m.budget
		e.objective += m.gamma * d * d
		// still not allowed to spend more than the budget
		e.violation += math.Max(0, d)
	default:
		e.violation += math.Max(0, e.spent()-m.budget)
		e.shortfall = math.Max(0, m.lower*m.budget-e.spent())
	}
	if e.violation < feasibilityTolerance {
		e.violation = 0
	}
	if e.shortfall < feasibilityTolerance {
		e.shortfall = 0
	}
	return e
}

// better reports whether a is a better evaluation than b: hard constraints
// first, then the lower budget bound, then the objective. An assignment
// spending over the budget never beats one that does not.
func better(a, b evaluation) bool {
	if a.violation != b.violation {
		return a.violation < b.violation
	}
	if a.shortfall != b.shortfall {
		return a.shortfall < b.shortfall
	}
	return a.objective < b.objective
}

// solution converts an assignment into a Solution.
func (m *model) solution(x []int) Solution {
	e := m.evaluate(x)
	s := Solution{
		Stocks:          make(map[string]int, len(x)),
		Return:          e.ret,
		Risk:            e.risk,
		Cost:            e.purchase,
		Sales:           e.sales,
		TransactionCost: e.tcost,
		Value:           e.cost,
		Feasible:        e.infeasibility() == 0,
	}
	for i, n := range x {
		s.Stocks[m.stocks[i]] = n
	}
	return s
}
