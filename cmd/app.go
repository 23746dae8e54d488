// Package cmd implements the command line application of the portfolio optimizer.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/portopt/date"
	"github.com/etnz/portopt/eodhd"
	"github.com/etnz/portopt/store"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// Commands lists the subcommands and their group.
var Commands = []struct {
	Cmd   subcommands.Command
	Group string
}{
	{&serveCmd{}, "dashboard"},
	{&runCmd{}, "dashboard"},
	{&historyCmd{}, "dashboard"},

	{&fetchCmd{}, "eodhd"},
	{&quoteCmd{}, "eodhd"},
	{&searchCmd{}, "eodhd"},

	{&explainCmd{}, "assistant"},
	{&assistCmd{}, "assistant"},

	{&topicCmd{}, "help"},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, e := range Commands {
		c.Register(e.Cmd, e.Group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbFile = flag.String("db", "portopt.db", "Path to the SQLite database holding the run history")
var eodhdCache = flag.String("eodhd-cache", "daily", "How long EODHD responses are cached: daily, weekly, monthly, quarterly or yearly")
var eodhdAPIKey = flag.String("eodhd-api-key", "", "EODHD API key to use for consuming EODHD.com API. This flag takes precedence over the "+eodhd.APIKeyEnv+" environment variable. You can get one at https://eodhd.com/")

// openStore opens the run history.
func openStore() (*store.Store, error) {
	return store.Open(*dbFile)
}

// eodhdClient returns the EODHD client, or nil if there is no API key.
func eodhdClient() *eodhd.Client {
	period, err := date.ParsePeriod(*eodhdCache)
	if err != nil {
		log.Printf("warning, invalid -eodhd-cache, responses are cached daily: %v", err)
	}
	c := eodhd.NewWithCache(*eodhdAPIKey, "", period)
	if c.APIKey == "" {
		return nil
	}
	return c
}

// genaiClient returns the Gemini client configured from the environment.
func genaiClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, nil)
}

// printMarkdown renders markdown for the terminal, or prints it as is if it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "warning: cannot render markdown: %v\n", err)
	fmt.Print(md)
}
