package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/dashboard"
	"github.com/etnz/portopt/date"
	"github.com/etnz/portopt/eodhd"
	"github.com/google/subcommands"
)

type fetchCmd struct {
	from, to string
	stocks   string
	baseline string
	num      int
	output   string
	fund     string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetches monthly stock prices from EODHD as CSV" }
func (*fetchCmd) Usage() string {
	return `portopt fetch [-from 2010-01-01] [-to 2012-12-31] [-stocks AAPL,MSFT] [-num 5] [-o prices.csv]

Fetches the daily prices of the stocks from EOD Historical Data, resamples
them to the last price of every business month, and writes them as CSV: the
format of the -data file of 'serve' and 'run'.

With -num, that many stocks are drawn at random from the symbols list instead
of -stocks. The baseline prices, aligned on the same months, are written to
the -fund file if set.

Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	def := dashboard.LiveRequest()
	f.StringVar(&c.from, "from", def.From.String(), "First day of the prices")
	f.StringVar(&c.to, "to", def.To.String(), "Last day of the prices")
	f.StringVar(&c.stocks, "stocks", strings.Join(def.Stocks, ","), "Comma separated list of stock symbols")
	f.StringVar(&c.baseline, "baseline", strings.Join(def.Baseline, ","), "Symbol of the baseline index")
	f.IntVar(&c.num, "num", 0, "Number of random stocks to fetch instead of -stocks")
	f.StringVar(&c.output, "o", "", "Output CSV file, the standard output when empty")
	f.StringVar(&c.fund, "fund", "", "Output CSV file of the baseline prices, if any")
}

// request returns the live data request of the flags.
func (c *fetchCmd) request() (req eodhd.Request, err error) {
	if req.From, err = date.Parse(c.from); err != nil {
		return req, fmt.Errorf("invalid -from: %w", err)
	}
	if req.To, err = date.Parse(c.to); err != nil {
		return req, fmt.Errorf("invalid -to: %w", err)
	}
	if req.To.Before(req.From) {
		return req, fmt.Errorf("-to %v is before -from %v", req.To, req.From)
	}
	req.Num = c.num
	req.Stocks = splitList(c.stocks)
	req.Baseline = splitList(c.baseline)
	if req.Num <= 0 && len(req.Stocks) < 2 {
		return req, portopt.ErrTooFewStocks
	}
	return req, nil
}

// splitList splits a comma separated list, ignoring empty items.
func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	client := eodhdClient()
	if client == nil {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable\n", eodhd.APIKeyEnv)
		return subcommands.ExitFailure
	}

	stocks, _, fund, err := client.LiveData(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching live data: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeCSV(c.output, stocks); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing prices: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.fund != "" {
		if err := writeCSV(c.fund, fund); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing baseline prices: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// writeCSV writes t to the file 'name', or to the standard output if name is empty.
func writeCSV(name string, t *portopt.Table) error {
	var w io.Writer = os.Stdout
	if name != "" {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	t.Index = "Month"
	return portopt.EncodeCSV(w, t)
}
