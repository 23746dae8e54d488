// Command portopt optimizes stock portfolios and serves the optimization dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/portopt/cmd"
	"github.com/google/subcommands"
)

func main() {
	// exits when called by the shell completion.
	cmd.Completion(flag.CommandLine).Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
