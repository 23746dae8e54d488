package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/etnz/portopt/agent"
	"github.com/etnz/portopt/dashboard"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr     string
	config   string
	data     string
	assets   string
	debug    bool
	noHist   bool
	noAdvice bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "starts the portfolio optimization dashboard" }
func (*serveCmd) Usage() string {
	return `portopt serve [-addr :8050] [-config app.yaml] [-data prices.csv] [-debug]

Starts the web dashboard.

Live data is available when an EODHD API key is set, and explanations of the
results when a Gemini API key is set in GEMINI_API_KEY or GOOGLE_API_KEY.
Runs are stored in the -db database unless -no-history is set.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8050", "Address the dashboard listens on")
	f.StringVar(&c.config, "config", "app.yaml", "YAML file with the app title and theme colors, ignored if it does not exist")
	f.StringVar(&c.data, "data", "", "CSV file of monthly stock prices, the sample data when empty")
	f.StringVar(&c.assets, "assets", "", "Directory the theme stylesheet is written to, if any")
	f.BoolVar(&c.debug, "debug", false, "Log every request and reload the data file when it changes")
	f.BoolVar(&c.noHist, "no-history", false, "Keep the run history in memory only")
	f.BoolVar(&c.noAdvice, "no-advice", false, "Disable the AI explanations")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := dashboard.LoadConfig(c.config)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = dashboard.DefaultConfig(), nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}

	opts := dashboard.Options{
		Config:   cfg,
		DataFile: c.data,
		Assets:   c.assets,
		Debug:    c.debug,
	}
	if live := eodhdClient(); live != nil {
		opts.Live = live
	} else {
		log.Println("warning, no EODHD API key, live data is disabled")
	}
	if !c.noHist {
		st, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening run history: %v\n", err)
			return subcommands.ExitFailure
		}
		defer st.Close()
		opts.Store = st
	}
	if !c.noAdvice {
		client, err := genaiClient(ctx)
		if err != nil {
			log.Printf("warning, explanations are disabled: %v", err)
		} else {
			opts.Advisor = agent.NewAdvisor(client)
		}
	}

	s, err := dashboard.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.ListenAndServe(ctx, c.addr); err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard stopped: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
