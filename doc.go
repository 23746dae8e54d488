// Package portopt optimizes stock portfolios.
//
// It finds the integer number of shares to hold of each stock that best
// trades expected return against risk under a budget, either once
// ("single-period") or by rebalancing every month of a price history
// ("multi-period").
//
// The core functionalities include:
//   - Price tables: monthly prices of stocks loaded from CSV or from the
//     eodhd package, with returns and covariance.
//   - Optimization: a constrained model solved by a classical exhaustive
//     search or by a hybrid annealing sampler, see SinglePeriod and
//     MultiPeriod.
//   - Presentation: plotly figures and result tables consumed by the
//     dashboard package.
//
// The dashboard, jobs and store packages build the web application served
// by the `portopt serve` command.
package portopt
