// Package renderer renders optimization results as markdown documents.
package renderer

import (
	"time"

	"github.com/etnz/portopt"
)

// Report is the content of a run report.
type Report struct {
	Title       string               `json:"title"`
	Period      string               `json:"period"` // "Single period" or "Multi period"
	Sampler     string               `json:"sampler"`
	Budget      float64              `json:"budget"`
	Problem     []portopt.Row        `json:"problem"`
	Solution    []portopt.Row        `json:"solution"`
	Allocations []portopt.Allocation `json:"allocations"`
	Steps       []portopt.Step       `json:"steps,omitempty"`
}

// NewReport builds the report of a single period run, or of a multi-period
// run when multi is not nil. In that case the solution is the last one.
func NewReport(title string, cfg portopt.Config, sol portopt.Solution, multi *portopt.MultiResult) *Report {
	solver := portopt.SolverFor(cfg.Sampler)
	timeLimit := cfg.TimeLimit
	if timeLimit <= 0 {
		timeLimit = portopt.DefaultTimeLimit
	}
	r := &Report{
		Title:   title,
		Period:  "Single period",
		Sampler: cfg.Sampler.String(),
		Budget:  cfg.Budget,
		Problem: portopt.ProblemDetails(solver, timeLimit),
	}
	if multi != nil && len(multi.Steps) > 0 {
		r.Period = "Multi period"
		r.Steps = multi.Steps
		sol = multi.Steps[len(multi.Steps)-1].Solution
	}
	r.Solution = portopt.FormatTableData(solver, sol)
	r.Allocations = sol.Allocations()
	return r
}

// Final returns the last step of a multi-period report.
func (r *Report) Final() portopt.Step {
	if len(r.Steps) == 0 {
		return portopt.Step{}
	}
	return r.Steps[len(r.Steps)-1]
}

// RunSummary is a line of the run history.
type RunSummary struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Period  string    `json:"period"`
	Sampler string    `json:"sampler"`
	Budget  float64   `json:"budget"`
	Status  string    `json:"status"`
}
