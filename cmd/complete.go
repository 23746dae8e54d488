package cmd

import (
	"flag"

	"github.com/etnz/portopt/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the application: the flags of
// 'global' and every subcommand with its own flags.
func Completion(global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(global),
	}
	for _, e := range Commands {
		fs := flag.NewFlagSet(e.Cmd.Name(), flag.ContinueOnError)
		e.Cmd.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		if e.Cmd.Name() == "topic" {
			sub.Args = complete.PredictFunc(func(string) []string {
				topics, _ := docs.GetAllTopics()
				return topics
			})
		}
		root.Sub[e.Cmd.Name()] = sub
	}
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	res := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		res[f.Name] = predictFlag(f)
	})
	return res
}

// predictFlag returns the predictor of a flag value, nil for boolean flags.
func predictFlag(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return nil
	}
	switch f.Name {
	case "data", "o", "fund":
		return predict.Files("*.csv")
	case "config":
		return predict.Files("*.yaml")
	case "db":
		return predict.Files("*.db")
	case "assets":
		return predict.Dirs("*")
	case "sampler":
		return predict.Set{"hybrid", "classical"}
	}
	return predict.Something
}
