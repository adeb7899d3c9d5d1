// Command btctax computes the capital gains of a bitcoin ledger.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/etnz/btctax/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "btctax")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when the shell asks for completions.
	completion(commander).Complete("btctax")

	flag.Parse()
	if sub := flag.Arg(0); sub != "" && !registered(commander, sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

// registered reports whether name is a builtin subcommand.
func registered(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		found = found || c.Name() == name
	})
	return found
}

// completion describes the commands and their flags for shell completion.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flags(fs)}
		switch c.Name() {
		case "import":
			sub.Args = predict.Set{"coingecko", "chart", "ledger"}
		case "help":
			sub.Args = predict.Nothing
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

// flags predicts the values of the flags of a flag set.
func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	res := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "ledger", "prices":
			res[f.Name] = predict.Files("*.jsonl")
		case "db":
			res[f.Name] = predict.Files("*.db")
		case "env":
			res[f.Name] = predict.Files("*")
		case "basis":
			res[f.Name] = predict.Set{"fair-value", "zero"}
		default:
			res[f.Name] = predict.Something
		}
	})
	return res
}
