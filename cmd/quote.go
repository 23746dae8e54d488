package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/eodhd"
	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "prints the last price of stocks" }
func (*quoteCmd) Usage() string {
	return `portopt quote <symbol...>

Prints the real-time price of every symbol, as reported by EOD Historical Data.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	client := eodhdClient()
	if client == nil {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable\n", eodhd.APIKeyEnv)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, symbol := range f.Args() {
		price, err := client.Latest(ctx, symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%-10s %s\n", eodhd.Ticker(symbol), portopt.USD(price))
	}
	return status
}
