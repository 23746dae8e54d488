package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/portopt/renderer"
	"github.com/etnz/portopt/store"
	"github.com/google/subcommands"
)

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "lists the stored optimization runs" }
func (*historyCmd) Usage() string {
	return `portopt history [-limit 20]

Lists the most recent runs of the run history, most recent first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 20, "Maximum number of runs to list, 0 for all")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run history: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	runs, err := st.List(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading run history: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderRuns(summaries(runs)))
	return subcommands.ExitSuccess
}

// summaries returns the history lines of stored runs.
func summaries(runs []store.Run) []renderer.RunSummary {
	res := make([]renderer.RunSummary, 0, len(runs))
	for _, r := range runs {
		res = append(res, renderer.RunSummary{
			ID:      r.ID,
			Created: r.Created,
			Period:  r.Period,
			Sampler: r.Sampler,
			Budget:  r.Budget,
			Status:  r.Status,
		})
	}
	return res
}
