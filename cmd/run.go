package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/dashboard"
	"github.com/etnz/portopt/jobs"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type runCmd struct {
	sampler   string
	timeLimit float64
	budget    float64
	tcost     bool
	multi     bool
	live      bool
	data      string
	save      bool
	title     string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "optimizes a portfolio and prints the report" }
func (*runCmd) Usage() string {
	return `portopt run [-sampler hybrid|classical] [-budget 1000] [-multi] [-live]

Runs a single period optimization, or a monthly rebalancing with -multi, on
the sample data (or the -data file), or on live data with -live.

The markdown report of the run is printed, and the run is stored in the run
history with -save.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sampler, "sampler", "hybrid", "Sampler: hybrid or classical")
	f.Float64Var(&c.timeLimit, "time-limit", portopt.DefaultTimeLimit.Seconds(), "Time limit of the sampler, in seconds")
	f.Float64Var(&c.budget, "budget", 1000, "Budget to invest, in dollars")
	f.BoolVar(&c.tcost, "transaction-cost", false, "Include transaction costs (single period only)")
	f.BoolVar(&c.multi, "multi", false, "Rebalance the portfolio every month")
	f.BoolVar(&c.live, "live", false, "Optimize live data instead of the sample data, requires an EODHD API key")
	f.StringVar(&c.data, "data", "", "CSV file of monthly stock prices, the sample data when empty")
	f.BoolVar(&c.save, "save", false, "Store the run in the run history")
	f.StringVar(&c.title, "title", dashboard.DefaultConfig().AppTitle, "Title of the report")
}

// request returns the run request of the flags.
func (c *runCmd) request() (dashboard.RunRequest, error) {
	sampler, err := portopt.ParseSamplerType(c.sampler)
	if err != nil {
		return dashboard.RunRequest{}, err
	}
	req := dashboard.RunRequest{
		Sampler:         sampler,
		TimeLimit:       c.timeLimit,
		Budget:          c.budget,
		TransactionCost: c.tcost,
	}
	if c.multi {
		req.Period = 1
	}
	return req, nil
}

// prices returns the stock prices and the fund of the run.
func (c *runCmd) prices(ctx context.Context) (stocks, fund *portopt.Table, err error) {
	if !c.live {
		d, err := dashboard.LoadData(c.data)
		if err != nil {
			return nil, nil, err
		}
		return d.Table(), dashboard.SampleFund(d.Table()), nil
	}
	client := eodhdClient()
	if client == nil {
		return nil, nil, fmt.Errorf("live data requires an EODHD API key")
	}
	stocks, _, fund, err = client.LiveData(ctx, dashboard.LiveRequest())
	return stocks, fund, err
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	stocks, fund, err := c.prices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}

	id := uuid.New().String()
	res, err := dashboard.Optimize(ctx, id, req, stocks, fund, func(step portopt.Step, _ *portopt.Figure) {
		log.Printf("%v: portfolio %v, fund %v", step.Date, portopt.USD(step.Value), portopt.USD(step.Baseline))
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error optimizing the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.save {
		if err := saveRun(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving run %s: %v\n", id, err)
			return subcommands.ExitFailure
		}
		log.Printf("run %s saved in %s", id, *dbFile)
	}
	printMarkdown(res.Report(c.title))
	return subcommands.ExitSuccess
}

// saveRun stores a finished run in the run history.
func saveRun(res *dashboard.Result) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	r, err := dashboard.StoredRun(res.ID, time.Now(), jobs.Done.String(), res.Request, res)
	if err != nil {
		return err
	}
	return st.Save(r)
}
