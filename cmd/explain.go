package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/portopt/agent"
	"github.com/etnz/portopt/dashboard"
	"github.com/etnz/portopt/store"
	"github.com/google/subcommands"
)

type explainCmd struct {
	title string
}

func (*explainCmd) Name() string     { return "explain" }
func (*explainCmd) Synopsis() string { return "asks the AI advisor to comment a stored run" }
func (*explainCmd) Usage() string {
	return `portopt explain [run id]

Prints the report of a stored run, the most recent one by default, followed by
a short commentary of the AI advisor.

Requires a Gemini API key in GEMINI_API_KEY or GOOGLE_API_KEY.
`
}

func (c *explainCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.title, "title", dashboard.DefaultConfig().AppTitle, "Title of the report")
}

func (c *explainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one run id is expected.")
		return subcommands.ExitUsageError
	}
	report, err := storedReport(f.Arg(0), c.title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	client, err := genaiClient(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	comment, err := agent.NewAdvisor(client).Explain(ctx, report)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Advisor failed:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(report + "\n## Advisor\n\n" + comment)
	return subcommands.ExitSuccess
}

// errNoRun is returned when the run history is empty.
var errNoRun = errors.New("the run history is empty, use 'portopt run -save' first")

// storedReport returns the markdown report of the run 'id' of the run
// history, or of the most recent run if id is empty.
func storedReport(id, title string) (string, error) {
	st, err := openStore()
	if err != nil {
		return "", err
	}
	defer st.Close()
	return reportOf(st, id, title)
}

func reportOf(st *store.Store, id, title string) (string, error) {
	var r store.Run
	if id == "" {
		runs, err := st.List(1)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errNoRun
		}
		r = runs[0]
	} else {
		var err error
		if r, err = st.Get(id); err != nil {
			return "", fmt.Errorf("run %q: %w", id, err)
		}
	}
	res, err := dashboard.DecodeResult(r)
	if err != nil {
		return "", err
	}
	return res.Report(title), nil
}
